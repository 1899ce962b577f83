package grpcapi

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

var codeByError = []struct {
	err  error
	code codes.Code
}{
	{domain.ErrCampaignNotFound, codes.NotFound},
	{domain.ErrSupporterNotFound, codes.NotFound},
	{domain.ErrSettlementNotFound, codes.NotFound},
	{domain.ErrGoalNotFound, codes.NotFound},
	{domain.ErrSlugTaken, codes.AlreadyExists},
	{domain.ErrUnauthorized, codes.PermissionDenied},
	{domain.ErrInvalidInput, codes.InvalidArgument},
	{domain.ErrInvalidMemo, codes.InvalidArgument},
	{domain.ErrUnknownToken, codes.InvalidArgument},
	{domain.ErrInsufficientBalance, codes.FailedPrecondition},
	{domain.ErrNothingAvailable, codes.FailedPrecondition},
	{domain.ErrSettlementInFlight, codes.Aborted},
	{domain.ErrRefundsPending, codes.Aborted},
	{domain.ErrSettlementResolved, codes.AlreadyExists},
	{domain.ErrPriceUnavailable, codes.Unavailable},
	{domain.ErrInvariant, codes.Internal},
}

// toStatus maps ledger errors onto gRPC status codes. Unlisted domain
// preconditions become FailedPrecondition; anything else is Internal.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	for _, m := range codeByError {
		if errors.Is(err, m.err) {
			return status.Error(m.code, err.Error())
		}
	}
	if isDomainPrecondition(err) {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func isDomainPrecondition(err error) bool {
	for _, e := range []error{
		domain.ErrNoGoals,
		domain.ErrTooManyGoals,
		domain.ErrGoalOrder,
		domain.ErrCampaignStarted,
		domain.ErrFundingWindowClosed,
		domain.ErrFundingWindowOpen,
		domain.ErrNotEnoughRewardTokens,
		domain.ErrBelowMinDeposit,
		domain.ErrHardCapExceeded,
		domain.ErrAlreadyEvaluated,
		domain.ErrAwaitingEvaluation,
		domain.ErrCampaignSuccessful,
		domain.ErrCampaignNotSuccessful,
		domain.ErrBeforeCliff,
		domain.ErrBeforeUnfreeze,
		domain.ErrAlreadyUnfrozen,
		domain.ErrNotUnfrozen,
		domain.ErrPriceNotIncreased,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
