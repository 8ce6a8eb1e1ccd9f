package conversation

import "context"

type ConversationService interface {
	HandleTurn(ctx context.Context, in Input) (Reply, error)
}
