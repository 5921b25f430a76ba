package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/arcauth/gateway/internal/controlapi/svc"
	"github.com/arcauth/gateway/internal/controlapi/types"
)

// ListUsersLogic backs /api/external/users, gated by the users:read API
// key scope. It returns the same types.UserProfile view the auth
// responses use rather than exposing SRP credentials.
type ListUsersLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewListUsersLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListUsersLogic {
	return &ListUsersLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *ListUsersLogic) List(req *types.ListUsersRequest) (*types.UserListResponse, error) {
	users, err := l.svcCtx.Users.ListUsers(l.ctx, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]types.UserProfile, len(users))
	for i, u := range users {
		out[i] = types.UserProfile{ID: u.ID, Email: u.Email, EmailVerified: u.EmailVerified}
	}
	return &types.UserListResponse{Users: out}, nil
}

// ListExternalRoutesLogic backs /api/external/routes, gated by the
// routes:read API key scope. It reuses ListRoutesLogic's response
// shape since external callers see the same route table admins configure.
type ListExternalRoutesLogic struct {
	*ListRoutesLogic
}

func NewListExternalRoutesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListExternalRoutesLogic {
	return &ListExternalRoutesLogic{ListRoutesLogic: NewListRoutesLogic(ctx, svcCtx)}
}
