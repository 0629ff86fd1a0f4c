package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/prp-express/internal/common"
	"github.com/joseph-ayodele/prp-express/internal/export"
	"github.com/joseph-ayodele/prp-express/internal/session"
)

// SessionService exposes sessions over gRPC.
type SessionService struct {
	registry *Registry
	exporter *export.Service
	logger   *slog.Logger
}

var _ SessionServiceServer = (*SessionService)(nil)

func NewSessionService(registry *Registry, exporter *export.Service, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{registry: registry, exporter: exporter, logger: logger}
}

func (s *SessionService) session(ctx context.Context, req *structpb.Struct) (*Session, context.Context, error) {
	id := str(req, "sessionId")
	if err := common.ValidateAndReturnError(common.NewValidator().Field("sessionId", id, common.Required, common.UUID)); err != nil {
		return nil, ctx, err
	}
	sess, err := s.registry.Get(id)
	if err != nil {
		return nil, ctx, common.ToStatus(err)
	}
	return sess, common.WithSessionID(ctx, id), nil
}

func (s *SessionService) withSession(sess *Session, extra map[string]interface{}) (*structpb.Struct, error) {
	if extra == nil {
		extra = map[string]interface{}{}
	}
	extra["session"] = sessionMap(sess.Store)
	return toStruct(extra)
}

func (s *SessionService) CreateSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess := s.registry.Create()
	if subject := strings.TrimSpace(str(req, "subject")); subject != "" {
		sess.Store.SetSubject(subject)
	}
	return s.withSession(sess, map[string]interface{}{"sessionId": sess.Store.ID().String()})
}

func (s *SessionService) GetSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, _, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.withSession(sess, nil)
}

func (s *SessionService) DeleteSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := str(req, "sessionId")
	if !s.registry.Delete(id) {
		return nil, common.ToStatus(ErrSessionNotFound)
	}
	return toStruct(map[string]interface{}{"deleted": true})
}

func (s *SessionService) SetSubject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, _, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	subject := str(req, "subject")
	if err := common.ValidateAndReturnError(common.NewValidator().Field("subject", subject, common.MaxLength(200))); err != nil {
		return nil, err
	}
	sess.Store.SetSubject(strings.TrimSpace(subject))
	return s.withSession(sess, nil)
}

func (s *SessionService) AddRecord(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, _, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	subject := sess.Store.Subject()
	if has(req, "subject") {
		subject = str(req, "subject")
	}
	id := sess.Store.AddRecord(str(req, "studentName"), str(req, "rawText"), subject)
	return s.withSession(sess, map[string]interface{}{"recordId": id.String()})
}

func (s *SessionService) IngestFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, ctx, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	name := str(req, "name")
	if err := common.ValidateAndReturnError(common.NewValidator().Field("name", name, common.Required)); err != nil {
		return nil, err
	}
	data, err := decode(str(req, "content"))
	if err != nil {
		return nil, err
	}

	res, err := sess.Ingestor.IngestContent(ctx, name, data)
	if err != nil {
		s.logger.Warn("grpc.ingest.failed", "file", name, "error", err)
		return nil, common.ToStatus(err)
	}
	return s.withSession(sess, map[string]interface{}{
		"recordId":     res.ReportID,
		"skipped":      res.Skipped,
		"deduplicated": res.Deduplicated,
		"reason":       res.Err,
	})
}

func (s *SessionService) RemoveRecord(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, _, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	id, err := parseRecordID(str(req, "recordId"))
	if err != nil {
		return nil, err
	}
	removed := sess.Store.RemoveRecord(id)
	return s.withSession(sess, map[string]interface{}{"removed": removed})
}

func (s *SessionService) SetActive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, _, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	id, err := parseRecordID(str(req, "recordId"))
	if err != nil {
		return nil, err
	}
	changed := sess.Store.SetActive(id)
	return s.withSession(sess, map[string]interface{}{"changed": changed})
}

func (s *SessionService) UpdateField(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, _, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	field, err := parseField(str(req, "field"))
	if err != nil {
		return nil, err
	}
	id := uuid.Nil
	if raw := str(req, "recordId"); raw != "" {
		if id, err = parseRecordID(raw); err != nil {
			return nil, err
		}
	}
	updated := sess.Store.UpdateField(id, field, str(req, "value"))
	return s.withSession(sess, map[string]interface{}{"updated": updated})
}

func (s *SessionService) Propagate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, _, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	field, err := parseField(str(req, "field"))
	if err != nil {
		return nil, err
	}
	target := session.AllRecords
	if raw := strings.TrimSpace(str(req, "target")); raw != "" && !strings.EqualFold(raw, "all") {
		if target, err = parseRecordID(raw); err != nil {
			return nil, err
		}
	}
	n, err := sess.Store.Propagate(field, target)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return s.withSession(sess, map[string]interface{}{"written": n})
}

func (s *SessionService) ClearNotFound(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, _, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	n := sess.Store.ClearNotFound()
	return s.withSession(sess, map[string]interface{}{"removed": n})
}

// Extract re-runs extraction for one record. With wait set, the call
// returns once the record has settled.
func (s *SessionService) Extract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, ctx, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	id, err := parseRecordID(str(req, "recordId"))
	if err != nil {
		return nil, err
	}
	if err := sess.Store.Extract(ctx, id); err != nil {
		return nil, common.ToStatus(err)
	}
	if flag(req, "wait") {
		if _, _, err := sess.Store.WaitRecord(ctx, id); err != nil {
			return nil, common.ToStatus(err)
		}
	}
	return s.withSession(sess, nil)
}

func (s *SessionService) Refine(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, ctx, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	field, err := parseField(str(req, "field"))
	if err != nil {
		return nil, err
	}
	value, err := sess.Store.Refine(ctx, field)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return s.withSession(sess, map[string]interface{}{"value": value})
}

func (s *SessionService) ExportRecord(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, ctx, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	rec, ok := sess.Store.Active()
	if raw := str(req, "recordId"); raw != "" {
		id, err := parseRecordID(raw)
		if err != nil {
			return nil, err
		}
		rec, ok = sess.Store.Get(id)
	}
	if !ok {
		return nil, common.ToStatus(session.ErrRecordNotFound)
	}
	data, err := s.exporter.ExportReportXLSX(ctx, rec)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]interface{}{
		"fileName": export.FileName(rec),
		"content":  encode(data),
	})
}

func (s *SessionService) ExportAll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, ctx, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	files, err := s.exporter.ExportAll(ctx, sess.Store.Records())
	if err != nil {
		return nil, common.ToStatus(err)
	}
	list := make([]interface{}, 0, len(files))
	for _, f := range files {
		list = append(list, map[string]interface{}{
			"fileName": f.Name,
			"recordId": f.ReportID,
			"content":  encode(f.Data),
		})
	}
	return toStruct(map[string]interface{}{"files": list})
}
