package cmd

import (
	"log/slog"

	"github.com/loomline/loomline/pkg/actions/createtask"
	"github.com/loomline/loomline/pkg/actions/email"
	"github.com/loomline/loomline/pkg/actions/generatereport"
	"github.com/loomline/loomline/pkg/actions/sms"
	"github.com/loomline/loomline/pkg/actions/updaterecord"
	"github.com/loomline/loomline/pkg/actions/webhook"
	"github.com/loomline/loomline/pkg/persistence"
	"github.com/loomline/loomline/pkg/registry"
	"github.com/loomline/loomline/pkg/services"
)

// NewRegistry builds the action registry with every native action type.
// Notification, task and report capabilities default to the log-backed
// development implementations; production deployments swap them at the
// call site.
func NewRegistry(logger *slog.Logger, store persistence.Persistence) *registry.Registry {
	reg := registry.NewRegistry(logger)

	sender := services.NewLogNotificationSender(logger)

	reg.Register(webhook.NewFactory())
	reg.Register(email.NewFactory(sender))
	reg.Register(sms.NewFactory(sender))
	reg.Register(updaterecord.NewFactory(store.OrderRepository()))
	reg.Register(createtask.NewFactory(services.NewLogTaskService(logger)))
	reg.Register(generatereport.NewFactory(services.NewLogReportService(logger)))

	return reg
}
