package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/medexa/medexa-platform/internal/config"
	"github.com/medexa/medexa-platform/internal/filestore"
	"github.com/medexa/medexa-platform/internal/notify"
	"github.com/medexa/medexa-platform/pkg/logging"
)

// BuildMailer selects the confirmation email provider. Misconfigured
// providers degrade to the log mailer.
func BuildMailer(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) notify.Mailer {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewLogMailer(logger)
	}
	from := notify.Sender{Address: cfg.EmailFromAddress, Name: cfg.EmailFromName, ReplyTo: cfg.EmailReplyTo}
	switch cfg.EmailProvider {
	case "sendgrid":
		if m := notify.NewSendGridMailer(cfg.SendGridAPIKey, from, logger); m != nil {
			logger.Info("confirmations via sendgrid", "from", cfg.EmailFromAddress)
			return m
		}
		logger.Warn("SENDGRID_API_KEY not set; using log mailer")
	case "ses":
		logger.Info("confirmations via ses", "from", cfg.EmailFromAddress, "region", awsCfg.Region)
		return notify.NewSESMailer(sesv2.NewFromConfig(awsCfg), from, logger)
	case "", "stub":
	default:
		logger.Warn("unknown email provider; using log mailer", "provider", cfg.EmailProvider)
	}
	return notify.NewLogMailer(logger)
}

// BuildFileStore returns the doctor document store.
func BuildFileStore(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) filestore.Store {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg != nil && cfg.FilesBackend == "s3" {
		logger.Info("doctor documents stored in s3", "bucket", cfg.DocumentsBucket, "endpoint", cfg.AWSEndpointOverride)
		return filestore.NewS3Store(filestore.NewS3Client(awsCfg, cfg.AWSEndpointOverride), logger)
	}
	logger.Warn("doctor documents kept in memory")
	return filestore.NewMemoryStore()
}
