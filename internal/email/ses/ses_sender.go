package ses

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"itinera/internal/config"
	"itinera/internal/domain"
	"itinera/internal/email"
	"itinera/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	from        string
	frontendURL string
}

// NewSESSender creates a Notifier that replies to forwarded emails through SES.
func NewSESSender(cfg *config.EmailConfig) (port.Notifier, error) {
	if cfg.FromAddress == "" {
		return nil, errors.New("ses: from address is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("ses: loading aws config: %w", err)
	}

	from := cfg.FromAddress
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress)
	}
	return &sesSender{
		client:      sesv2.NewFromConfig(awsCfg),
		from:        from,
		frontendURL: cfg.FrontendURL,
	}, nil
}

func (s *sesSender) SendIngestionSummary(ctx context.Context, to, subject string, result *domain.IngestionResult) error {
	msg := email.RenderSummary(subject, result, s.frontendURL)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &s.from,
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &msg.Subject},
				Body: &types.Body{
					Html: &types.Content{Data: &msg.HTML},
					Text: &types.Content{Data: &msg.Text},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses.SendIngestionSummary: %w", err)
	}
	return nil
}
