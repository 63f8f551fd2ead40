package migrations

import (
	"github.com/google/uuid"
	"github.com/homehands/notify-engine/internal/domain"
	"github.com/homehands/notify-engine/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const smsMaxLength = 160

type templateSeed struct {
	name      string
	event     domain.EventType
	channel   domain.Channel
	subject   string
	body      string
	variables []string
	maxLength int
}

// Starter templates so a fresh install can dispatch every event on SMS and
// the transactional email flows without manual setup.
var templateSeeds = []templateSeed{
	{
		name:      "order placed sms",
		event:     domain.EventOrderPlaced,
		channel:   domain.ChannelSMS,
		body:      "Hi {name}, order {order_id} received. We will confirm your service slot shortly.",
		variables: []string{"name", "order_id"},
		maxLength: smsMaxLength,
	},
	{
		name:      "order placed email",
		event:     domain.EventOrderPlaced,
		channel:   domain.ChannelEmail,
		subject:   "Order {order_id} received",
		body:      "Hi {name},\n\nWe have received your order {order_id}. You will get a confirmation once a service slot is assigned.\n\nThank you.",
		variables: []string{"name", "order_id"},
	},
	{
		name:      "order confirmed sms",
		event:     domain.EventOrderConfirmed,
		channel:   domain.ChannelSMS,
		body:      "Hi {name}, order {order_id} is confirmed for {service_date}.",
		variables: []string{"name", "order_id", "service_date"},
		maxLength: smsMaxLength,
	},
	{
		name:      "technician assigned sms",
		event:     domain.EventTechnicianAssigned,
		channel:   domain.ChannelSMS,
		body:      "Hi {name}, {technician_name} ({technician_phone}) is assigned to order {order_id}.",
		variables: []string{"name", "technician_name", "technician_phone", "order_id"},
		maxLength: smsMaxLength,
	},
	{
		name:      "service scheduled sms",
		event:     domain.EventServiceScheduled,
		channel:   domain.ChannelSMS,
		body:      "Hi {name}, your service for order {order_id} is scheduled on {service_date} at {service_time}.",
		variables: []string{"name", "order_id", "service_date", "service_time"},
		maxLength: smsMaxLength,
	},
	{
		name:      "technician en route sms",
		event:     domain.EventTechnicianEnRoute,
		channel:   domain.ChannelSMS,
		body:      "Hi {name}, {technician_name} is on the way for order {order_id}.",
		variables: []string{"name", "technician_name", "order_id"},
		maxLength: smsMaxLength,
	},
	{
		name:      "service started sms",
		event:     domain.EventServiceStarted,
		channel:   domain.ChannelSMS,
		body:      "Hi {name}, work on order {order_id} has started.",
		variables: []string{"name", "order_id"},
		maxLength: smsMaxLength,
	},
	{
		name:      "service completed sms",
		event:     domain.EventServiceCompleted,
		channel:   domain.ChannelSMS,
		body:      "Hi {name}, order {order_id} is complete. Thank you for choosing us.",
		variables: []string{"name", "order_id"},
		maxLength: smsMaxLength,
	},
	{
		name:      "service completed email",
		event:     domain.EventServiceCompleted,
		channel:   domain.ChannelEmail,
		subject:   "Order {order_id} completed",
		body:      "Hi {name},\n\nYour order {order_id} has been completed. We hope everything went well.\n\nThank you.",
		variables: []string{"name", "order_id"},
	},
	{
		name:      "payment reminder sms",
		event:     domain.EventPaymentReminder,
		channel:   domain.ChannelSMS,
		body:      "Hi {name}, payment of {amount} for order {order_id} is pending. Please complete it at your earliest.",
		variables: []string{"name", "amount", "order_id"},
		maxLength: smsMaxLength,
	},
	{
		name:      "feedback request email",
		event:     domain.EventFeedbackRequest,
		channel:   domain.ChannelEmail,
		subject:   "How did we do on order {order_id}?",
		body:      "Hi {name},\n\nWe would love your feedback on order {order_id}. It takes a minute and helps us improve.\n\nThank you.",
		variables: []string{"name", "order_id"},
	},
	{
		name:      "order cancelled sms",
		event:     domain.EventOrderCancelled,
		channel:   domain.ChannelSMS,
		body:      "Hi {name}, order {order_id} has been cancelled. Contact support if this was unexpected.",
		variables: []string{"name", "order_id"},
		maxLength: smsMaxLength,
	},
	{
		name:      "service rescheduled sms",
		event:     domain.EventServiceRescheduled,
		channel:   domain.ChannelSMS,
		body:      "Hi {name}, your service for order {order_id} is rescheduled to {service_date} at {service_time}.",
		variables: []string{"name", "order_id", "service_date", "service_time"},
		maxLength: smsMaxLength,
	},
}

func seedTemplates(tx *gorm.DB) error {
	for _, seed := range templateSeeds {
		model := repository.TemplateModel{
			ID:        uuid.NewString(),
			Name:      seed.name,
			EventType: seed.event,
			Channel:   seed.channel,
			Subject:   seed.subject,
			Body:      seed.body,
			Variables: repository.EncodeVariables(seed.variables),
			MaxLength: seed.maxLength,
			Active:    true,
		}
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func unseedTemplates(tx *gorm.DB) error {
	names := make([]string, 0, len(templateSeeds))
	for _, seed := range templateSeeds {
		names = append(names, seed.name)
	}
	return tx.Where("name IN ?", names).Delete(&repository.TemplateModel{}).Error
}
