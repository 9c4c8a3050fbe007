package email

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultQueueSize   = 64
	defaultMaxAttempts = 3
	defaultBackoff     = 2 * time.Second
	deliveryTimeout    = 15 * time.Second
)

type deliveryJob struct {
	kind    string
	toEmail string
	send    func(ctx context.Context) error
}

// AsyncSender desacopla el envio de correos del request que lo dispara:
// encola y retorna de inmediato, y un worker entrega con reintentos
// acotados y backoff exponencial. Un fallo definitivo solo se loguea; la
// credencial ya persistida queda intacta y el usuario puede pedir otra.
type AsyncSender struct {
	inner       Sender
	logger      *zap.Logger
	queue       chan deliveryJob
	wg          sync.WaitGroup
	maxAttempts int
	backoff     time.Duration
}

func NewAsyncSender(inner Sender, logger *zap.Logger) *AsyncSender {
	return newAsyncSender(inner, logger, defaultMaxAttempts, defaultBackoff)
}

func newAsyncSender(inner Sender, logger *zap.Logger, maxAttempts int, backoff time.Duration) *AsyncSender {
	s := &AsyncSender{
		inner:       inner,
		logger:      logger,
		queue:       make(chan deliveryJob, defaultQueueSize),
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

func (s *AsyncSender) SendVerificationOTP(_ context.Context, toEmail string, code string, expiresAt time.Time) error {
	s.enqueue(deliveryJob{
		kind:    "verification_otp",
		toEmail: toEmail,
		send: func(ctx context.Context) error {
			return s.inner.SendVerificationOTP(ctx, toEmail, code, expiresAt)
		},
	})
	return nil
}

func (s *AsyncSender) SendPasswordReset(_ context.Context, toEmail string, resetURL string) error {
	s.enqueue(deliveryJob{
		kind:    "password_reset",
		toEmail: toEmail,
		send: func(ctx context.Context) error {
			return s.inner.SendPasswordReset(ctx, toEmail, resetURL)
		},
	})
	return nil
}

// Close deja de aceptar trabajos y espera a que el worker drene la cola.
func (s *AsyncSender) Close() {
	close(s.queue)
	s.wg.Wait()
}

func (s *AsyncSender) enqueue(job deliveryJob) {
	select {
	case s.queue <- job:
	default:
		if s.logger != nil {
			s.logger.Warn("email queue full, dropping delivery",
				zap.String("kind", job.kind),
				zap.String("email", job.toEmail),
			)
		}
	}
}

func (s *AsyncSender) worker() {
	defer s.wg.Done()
	for job := range s.queue {
		s.deliver(job)
	}
}

func (s *AsyncSender) deliver(job deliveryJob) {
	wait := s.backoff
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		err = job.send(ctx)
		cancel()
		if err == nil {
			return
		}
		if attempt < s.maxAttempts {
			time.Sleep(wait)
			wait *= 2
		}
	}
	if s.logger != nil {
		s.logger.Error("email delivery failed after retries",
			zap.String("kind", job.kind),
			zap.String("email", job.toEmail),
			zap.Error(err),
		)
	}
}
