package backend

import "github.com/taskhall/commenter/internal/model"

// Envelope codes the backend uses for claim and submission conflicts.
// Anything else non-zero is an unclassified server failure.
const (
	CodeAlreadyClaimed   = 1001
	CodeAlreadySubmitted = 1002
	CodeClaimExpired     = 1003
)

func classify(env *model.Envelope) error {
	switch env.Code {
	case CodeAlreadyClaimed, CodeAlreadySubmitted, CodeClaimExpired:
		return model.NewBackendError(model.ErrConflict, env.Code, env.Message)
	default:
		return model.NewBackendError(model.ErrServer, env.Code, env.Message)
	}
}
