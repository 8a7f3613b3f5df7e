package user

import (
	"context"

	"github.com/koinonia-app/koinonia/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service that sends its emails synchronously.
func NewServiceMock(repo Repository, conf *core.Config, mailSvc core.EmailService, logger core.Logger) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			conf:    conf,
			mailSvc: mailSvc,
			logger:  logger,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return nil
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
