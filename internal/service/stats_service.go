package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	statsSignatureKeyPrefix = "stats:signature:"
	statsTotalKey           = "stats:completions"
)

// redisCounter es el subconjunto de redis que usan las estadisticas.
type redisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// StatsService mantiene contadores globales por firma para estadisticas tipo
// "que porcentaje de usuarios comparte tu perfil". Eventualmente consistente:
// los increments son atomicos en redis, nunca read-modify-write, y las
// escrituras jamas bloquean ni hacen fallar un request de usuario.
type StatsService struct {
	client redisCounter
	logger *zap.Logger
}

func NewStatsService(client *redis.Client, logger *zap.Logger) *StatsService {
	if client == nil {
		return nil
	}
	return &StatsService{client: client, logger: logger}
}

// RecordCompletion incrementa el contador de la firma y el total global.
// Fire-and-forget: corre en background con timeout corto y solo loguea fallos.
func (s *StatsService) RecordCompletion(signature string) {
	if s == nil || s.client == nil || signature == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.client.Incr(ctx, statsSignatureKeyPrefix+signature).Err(); err != nil {
			if s.logger != nil {
				s.logger.Warn("stats signature incr failed", zap.String("signature", signature), zap.Error(err))
			}
			return
		}
		if err := s.client.Incr(ctx, statsTotalKey).Err(); err != nil {
			if s.logger != nil {
				s.logger.Warn("stats total incr failed", zap.Error(err))
			}
		}
	}()
}

// ProfileShare devuelve el porcentaje de evaluaciones completadas que
// comparten la firma dada. 0 cuando no hay datos.
func (s *StatsService) ProfileShare(ctx context.Context, signature string) (float64, error) {
	if s == nil || s.client == nil {
		return 0, nil
	}

	total, err := s.client.Get(ctx, statsTotalKey).Int64()
	if err == redis.Nil || total == 0 {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	count, err := s.client.Get(ctx, statsSignatureKeyPrefix+signature).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return float64(count) / float64(total) * 100, nil
}
