package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/arcauth/gateway/internal/apierr"
	"github.com/arcauth/gateway/internal/controlapi/svc"
	"github.com/arcauth/gateway/internal/controlapi/types"
)

// StatsLogic backs both /api/admin/stats and /api/external/stats (§12.1):
// the two endpoints differ only in their auth gate, not their payload.
type StatsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewStatsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *StatsLogic {
	return &StatsLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *StatsLogic) Get() (*types.StatsResponse, error) {
	stats, err := l.svcCtx.Stats.Load(l.ctx)
	if err != nil {
		return nil, apierr.Internal()
	}
	return &types.StatsResponse{
		TotalUsers:          stats.TotalUsers,
		UsersLast24h:        stats.UsersLast24h,
		ActiveRefreshTokens: stats.ActiveRefreshTokens,
		TotalRequestsServed: l.svcCtx.Proxy.RequestCount(),
		RequestsByUpstream:  l.svcCtx.Proxy.RouteCounts(),
	}, nil
}
