package app

import (
	"net/http"
	"time"

	"go-skud/internal/config"
	"go-skud/internal/notify"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// buildDestinations always includes the log destination; Telegram and Kafka
// join when configured and reachable.
func buildDestinations(cfg config.Config, writer *kafkago.Writer, logger *zap.Logger) []notify.Destination {
	log := logger.Named("app.notifier")
	destinations := []notify.Destination{notify.NewLogDestination(logger)}

	if cfg.TelegramToken != "" {
		bot, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, tgbotapi.APIEndpoint,
			&http.Client{Timeout: telegramTimeout(cfg)})
		if err != nil {
			log.Warn("telegram bot unavailable", zap.Error(err))
		} else {
			log.Info("telegram bot authorized", zap.String("bot", bot.Self.UserName))
			destinations = append(destinations, notify.NewTelegramDestination(bot, map[notify.Audience][]int64{
				notify.AudienceAttendance: cfg.TelegramAttendanceChat,
				notify.AudienceOperators:  cfg.TelegramOperatorChat,
			}))
		}
	}

	if writer != nil {
		destinations = append(destinations, notify.NewKafkaDestination(writer, cfg.NotificationTopic))
	}

	return destinations
}

func telegramTimeout(cfg config.Config) time.Duration {
	if cfg.NotificationTimeout > 0 {
		return cfg.NotificationTimeout
	}
	return 10 * time.Second
}
