package usecase

import (
	"fmt"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/domain/service"
)

const (
	chatPreviewRunes      = 100
	unknownSenderName     = "알수없음"
	imageReceivedBody     = "이미지를 받았습니다."
	exchangeCreatedTitle  = "금 교환 요청 접수"
	exchangeProgressTitle = "교환 진행 알림"
	exchangeProgressBody  = "관리자가 귀하의 금 교환 요청을 접수하였습니다."
)

func ChatNotification(chatID string, msg *entity.Message) entity.Notification {
	name := msg.SenderName
	if name == "" {
		name = unknownSenderName
	}

	body := imageReceivedBody
	if msg.Text != "" {
		body = truncateRunes(msg.Text, chatPreviewRunes)
	}

	return entity.Notification{
		Title: "새 메시지 from " + name,
		Body:  body,
		Data: map[string]string{
			"type":   entity.NotificationTypeChat,
			"chatId": chatID,
			"sender": msg.Sender,
		},
	}
}

func ExchangeCreatedNotification(exchange *entity.GoldExchange) entity.Notification {
	return entity.Notification{
		Title: exchangeCreatedTitle,
		Body:  fmt.Sprintf("요청하신 %sg 교환이 접수되었습니다.", service.FormatFixed2(exchange.TotalFinalWeight)),
		Data: map[string]string{
			"type":       entity.NotificationTypeExchangeRequest,
			"exchangeId": exchange.ID,
		},
	}
}

func ExchangeInProgressNotification(exchangeID string) entity.Notification {
	return entity.Notification{
		Title: exchangeProgressTitle,
		Body:  exchangeProgressBody,
		Data: map[string]string{
			"type":       entity.NotificationTypeExchangeInProgress,
			"exchangeId": exchangeID,
		},
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
