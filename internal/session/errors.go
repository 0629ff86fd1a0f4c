package session

import "github.com/joseph-ayodele/prp-express/internal/common"

var (
	ErrNoActiveRecord   = common.NewAppError("NO_ACTIVE_RECORD", "no active record", common.ErrPrecondition)
	ErrRecordNotFound   = common.NewAppError("RECORD_NOT_FOUND", "record not found", common.ErrNotFound)
	ErrUnknownField     = common.NewAppError("UNKNOWN_FIELD", "unknown field", common.ErrInvalidInput)
	ErrInvalidTarget    = common.NewAppError("INVALID_TARGET", "the active record cannot be a propagation target", common.ErrInvalidInput)
	ErrEmptyValue       = common.NewAppError("EMPTY_VALUE", "field is empty", common.ErrPrecondition)
	ErrNotExtractable   = common.NewAppError("NOT_EXTRACTABLE", "subject and PSP text are both required", common.ErrPrecondition)
	ErrTooShort         = common.NewAppError("TOO_SHORT", "field needs at least 5 characters to refine", common.ErrPrecondition)
	ErrRefineBusy       = common.NewAppError("REFINE_BUSY", "another field is being refined", common.ErrBusy)
	ErrRefinementFailed = common.NewAppError("REFINE_FAILED", "refinement failed", common.ErrInternal)
)
