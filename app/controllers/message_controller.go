package controllers

import (
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"github.com/gigbridge/gigbridge/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// HandleListMessages returns one conversation in creation order.
func HandleListMessages(c *fiber.Ctx) error {
	appID, err := parseIDParam(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	msgs, err := getMessagingGate().ListMessages(usercontext.GetPrincipal(c), appID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

// HandleSendMessage appends a message to a conversation. The declared sender
// identity must match the session principal.
func HandleSendMessage(c *fiber.Ctx) error {
	appID, err := parseIDParam(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	var req struct {
		SenderType string `json:"sender_type"`
		Message    string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, faults.Invalidf("invalid request body"))
	}

	msg, err := getMessagingGate().Send(usercontext.GetPrincipal(c), appID, req.SenderType, req.Message)
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// HandleMarkMessagesRead stamps every unread counterpart message in the
// conversation. Idempotent.
func HandleMarkMessagesRead(c *fiber.Ctx) error {
	appID, err := parseIDParam(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	n, err := getMessagingGate().MarkRead(usercontext.GetPrincipal(c), appID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"marked_read": n})
}

// HandleUnreadCount returns the caller's unread count for one conversation.
func HandleUnreadCount(c *fiber.Ctx) error {
	appID, err := parseIDParam(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	n, err := getMessagingGate().UnreadCount(usercontext.GetPrincipal(c), appID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"unread": n})
}
