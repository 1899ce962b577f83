package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{fmt.Errorf("load: %w", domain.ErrCampaignNotFound), codes.NotFound},
		{domain.ErrSlugTaken, codes.AlreadyExists},
		{domain.ErrUnauthorized, codes.PermissionDenied},
		{domain.ErrInvalidInput, codes.InvalidArgument},
		{domain.ErrInsufficientBalance, codes.FailedPrecondition},
		{domain.ErrSettlementInFlight, codes.Aborted},
		{fmt.Errorf("%w: campaign 3", domain.ErrRefundsPending), codes.Aborted},
		{domain.ErrPriceUnavailable, codes.Unavailable},
		{domain.ErrBeforeCliff, codes.FailedPrecondition},
		{domain.ErrAwaitingEvaluation, codes.FailedPrecondition},
		{domain.ErrInvariant, codes.Internal},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("db down"), codes.Internal},
		{status.Error(codes.Unauthenticated, "no token"), codes.Unauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.code, status.Code(toStatus(tt.err)))
		})
	}
	assert.NoError(t, toStatus(nil))
}
