package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"coupon-ledger/internal/domain/coupon"
	"coupon-ledger/internal/pkg/config"
	"coupon-ledger/internal/usecase/commands"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESAPI is the part of the SES v2 client the notifier calls.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESNotifier struct {
	client   SESAPI
	renderer *TemplateRenderer
	from     string
	logger   *slog.Logger
}

// NewSESClient uses static keys when both are configured and the default
// AWS credential chain otherwise.
func NewSESClient(ctx context.Context, cfg config.MailConfig) (*sesv2.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return sesv2.NewFromConfig(awsCfg), nil
}

func NewSESNotifier(client SESAPI, renderer *TemplateRenderer, fromName, fromEmail string, logger *slog.Logger) *SESNotifier {
	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}
	return &SESNotifier{client: client, renderer: renderer, from: from, logger: logger}
}

func (s *SESNotifier) NotifyIssued(ctx context.Context, n commands.Notice) error {
	msg, err := s.renderer.Render(n)
	if err != nil {
		return err
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("coupon_code"), Value: aws.String(n.Record.Code().String())},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send to %s failed: %w", coupon.RedactEmail(msg.To), err)
	}

	messageID := ""
	if out.MessageId != nil {
		messageID = *out.MessageId
	}
	s.logger.InfoContext(ctx, "coupon email sent",
		"to", coupon.RedactEmail(msg.To),
		"code", n.Record.Code().String(),
		"message_id", messageID,
	)
	return nil
}
