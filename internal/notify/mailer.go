// Package notify sends transactional email.
package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"saju-backend/internal/logger"
)

type Receipt struct {
	Email        string
	Name         string
	MerchantUID  string
	AmountKRW    int64
	Coins        int64
	BalanceAfter int64
}

type Mailer interface {
	SendChargeReceipt(ctx context.Context, r Receipt) error
}

type SendGridMailer struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewSendGridMailer(apiKey, fromEmail, fromName string) *SendGridMailer {
	return &SendGridMailer{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *SendGridMailer) buildReceipt(r Receipt) *mail.SGMailV3 {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(r.Name, r.Email)
	subject := fmt.Sprintf("[%s] 코인 %d개 충전 완료", s.fromName, r.Coins)
	plain := fmt.Sprintf("%s님, 결제가 완료되었습니다.\n\n주문번호: %s\n결제금액: %d원\n충전 코인: %d\n현재 잔액: %d\n",
		r.Name, r.MerchantUID, r.AmountKRW, r.Coins, r.BalanceAfter)
	html := fmt.Sprintf(`<p>%s님, 결제가 완료되었습니다.</p>
<ul><li>주문번호: %s</li><li>결제금액: %d원</li><li>충전 코인: %d</li><li>현재 잔액: %d</li></ul>`,
		r.Name, r.MerchantUID, r.AmountKRW, r.Coins, r.BalanceAfter)
	return mail.NewSingleEmail(from, subject, to, plain, html)
}

func (s *SendGridMailer) SendChargeReceipt(ctx context.Context, r Receipt) error {
	message := s.buildReceipt(r)

	logger.ExternalServiceCall("sendgrid", "Send", "merchantUID", r.MerchantUID)
	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		err = fmt.Errorf("failed to send email: %w", err)
		logger.ExternalServiceResult("sendgrid", "Send", err)
		return err
	}
	if response.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("sendgrid", "Send", err)
		return err
	}
	logger.ExternalServiceResult("sendgrid", "Send", nil, "status", response.StatusCode)
	return nil
}

// LogMailer only logs. It is used when no SendGrid key is configured.
type LogMailer struct{}

func (LogMailer) SendChargeReceipt(ctx context.Context, r Receipt) error {
	logger.InfoContext(ctx, "Charge receipt (mail disabled)", "merchantUID", r.MerchantUID, "coins", r.Coins)
	return nil
}
