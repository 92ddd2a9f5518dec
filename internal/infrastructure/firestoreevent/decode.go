package firestoreevent

import (
	"strconv"
	"time"

	"goldmarket/internal/domain/entity"
)

// Message maps a chats/{chatId}/messages/{messageId} document.
func Message(d Document) *entity.Message {
	data := d.Data()
	return &entity.Message{
		ID:         d.ID(),
		ChatID:     d.PathParam("chats"),
		Sender:     asString(data["sender"]),
		SenderName: asString(data["senderName"]),
		Text:       asString(data["text"]),
		ImageURL:   asString(data["imageUrl"]),
		Timestamp:  asTime(data["timestamp"]),
		ReadBy:     asStrings(data["readBy"]),
	}
}

// GoldExchange maps a goldExchanges/{exchangeId} document.
func GoldExchange(d Document) *entity.GoldExchange {
	data := d.Data()
	exchange := &entity.GoldExchange{
		ID:                    d.ID(),
		UserID:                asString(data["userId"]),
		TotalFinalWeight:      asFloat(data["totalFinalWeight"]),
		TotalFinalWeightInDon: asString(data["totalFinalWeightInDon"]),
		Name:                  asString(data["name"]),
		Address:               asString(data["address"]),
		Phone:                 asString(data["phone"]),
		Email:                 asString(data["email"]),
		Status:                entity.ExchangeStatus(asString(data["status"])),
		CreatedAt:             asTime(data["createdAt"]),
		UpdatedAt:             asTime(data["updatedAt"]),
	}

	if items, ok := data["products"].([]interface{}); ok {
		for _, item := range items {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			exchange.Products = append(exchange.Products, entity.ExchangeProduct{
				GoldType:      asString(m["goldType"]),
				Quantity:      asString(m["quantity"]),
				InputUnit:     asString(m["inputUnit"]),
				ExchangeType:  asString(m["exchangeType"]),
				FinalWeight:   asFloat(m["finalWeight"]),
				StampImageURL: asString(m["stampImageUrl"]),
			})
		}
	}

	return exchange
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err == nil {
			return f
		}
	}
	return 0
}

func asTime(v interface{}) time.Time {
	t, _ := v.(time.Time)
	return t
}

func asStrings(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
