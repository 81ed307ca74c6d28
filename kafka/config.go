package kafka

import (
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/code19m/errx"
	"github.com/samber/lo"
)

// Config configures the dead-letter producer.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Brokers string `yaml:"brokers" validate:"required_if=Enabled true"`
	Topic   string `yaml:"topic"   default:"redq.dead_letters"`

	// SASL/PLAIN is enabled when both credentials are set.
	SaslUsername string `yaml:"sasl_username"`
	SaslPassword string `yaml:"sasl_password" mask:"true"`

	KafkaVersion string        `yaml:"kafka_version" default:"3.6.0"`
	SendRetries  int           `yaml:"send_retries"  default:"3" validate:"gte=0"`
	SendTimeout  time.Duration `yaml:"send_timeout"  default:"10s"`
}

func (c Config) brokerList() []string {
	return lo.Compact(lo.Map(strings.Split(c.Brokers, ","), func(b string, _ int) string {
		return strings.TrimSpace(b)
	}))
}

func (c Config) saramaConfig(clientID string) (*sarama.Config, error) {
	version, err := sarama.ParseKafkaVersion(c.KafkaVersion)
	if err != nil {
		return nil, errx.Wrap(err,
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"kafka_version": c.KafkaVersion}),
		)
	}

	sc := sarama.NewConfig()
	sc.ClientID = clientID
	sc.Version = version

	if c.SaslUsername != "" && c.SaslPassword != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		sc.Net.SASL.User = c.SaslUsername
		sc.Net.SASL.Password = c.SaslPassword
	}

	// SyncProducer needs both return channels.
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = c.SendRetries
	if c.SendTimeout > 0 {
		sc.Producer.Timeout = c.SendTimeout
	}

	return sc, nil
}
