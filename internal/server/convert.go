package server

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/prp-express/constants"
	"github.com/joseph-ayodele/prp-express/internal/common"
	"github.com/joseph-ayodele/prp-express/internal/entity"
	"github.com/joseph-ayodele/prp-express/internal/session"
)

func str(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func flag(req *structpb.Struct, key string) bool {
	return req.GetFields()[key].GetBoolValue()
}

func has(req *structpb.Struct, key string) bool {
	_, ok := req.GetFields()[key]
	return ok
}

func parseRecordID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, common.InvalidArgumentErrorf("recordId must be a UUID")
	}
	return id, nil
}

func parseField(raw string) (constants.Field, error) {
	f, ok := constants.ParseField(raw)
	if !ok {
		return "", common.ToStatus(session.ErrUnknownField)
	}
	return f, nil
}

func recordMap(r entity.Report) map[string]interface{} {
	out := map[string]interface{}{
		"id":         r.ID.String(),
		"status":     string(r.Status),
		"complete":   r.IsComplete(),
		"sourceFile": r.SourceFile,
		"createdAt":  r.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt":  r.UpdatedAt.Format(time.RFC3339Nano),
	}
	for _, f := range constants.AllFields() {
		out[string(f)] = r.Get(f)
	}
	missing := make([]interface{}, 0)
	for _, f := range r.MissingFields() {
		missing = append(missing, string(f))
	}
	out["missing"] = missing
	return out
}

func sessionMap(st *session.Store) map[string]interface{} {
	recs := st.Records()
	list := make([]interface{}, 0, len(recs))
	for _, r := range recs {
		list = append(list, recordMap(r))
	}
	active := ""
	if id := st.ActiveID(); id != uuid.Nil {
		active = id.String()
	}
	return map[string]interface{}{
		"id":          st.ID().String(),
		"subject":     st.Subject(),
		"activeId":    active,
		"busyField":   string(st.BusyField()),
		"allComplete": st.AllComplete(),
		"hasNotFound": st.HasNotFound(),
		"records":     list,
	}
}

func encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, common.InvalidArgumentErrorf("content must be base64: %v", err)
	}
	return b, nil
}

func toStruct(m map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalError("encode response: " + err.Error())
	}
	return out, nil
}
