package bot

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Исходящий канал для движка публикации и sweep'а подписок.

func (b *Bot) SendText(_ context.Context, channelID, text string) error {
	cid, err := parseChannelID(channelID)
	if err != nil {
		return err
	}
	_, err = b.api.Send(tgbotapi.NewMessage(cid, text))
	return err
}

func (b *Bot) SendPhoto(_ context.Context, channelID, fileID, caption string) error {
	cid, err := parseChannelID(channelID)
	if err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(cid, tgbotapi.FileID(fileID))
	photo.Caption = caption
	_, err = b.api.Send(photo)
	return err
}

func (b *Bot) SendVideo(_ context.Context, channelID, fileID, caption string) error {
	cid, err := parseChannelID(channelID)
	if err != nil {
		return err
	}
	video := tgbotapi.NewVideo(cid, tgbotapi.FileID(fileID))
	video.Caption = caption
	_, err = b.api.Send(video)
	return err
}

// KickMember убирает пользователя из закрытого канала: бан и сразу
// разбан, чтобы он мог вернуться по новой ссылке после оплаты.
func (b *Bot) KickMember(_ context.Context, channelID, userID int64) error {
	ban := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: channelID, UserID: userID},
	}
	if _, err := b.api.Request(ban); err != nil {
		return fmt.Errorf("ban member: %w", err)
	}

	unban := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: channelID, UserID: userID},
	}
	if _, err := b.api.Request(unban); err != nil {
		return fmt.Errorf("unban member: %w", err)
	}
	return nil
}

// isChannelAdmin проверяет, что userID — админ или владелец канала.
func (b *Bot) isChannelAdmin(channelID, userID int64) bool {
	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: channelID, UserID: userID},
	})
	if err != nil {
		b.log.Error("get chat member failed", "channel", channelID, "err", err)
		return false
	}
	return member.Status == "administrator" || member.Status == "creator"
}

func parseChannelID(channelID string) (int64, error) {
	cid, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad channel id %q: %w", channelID, err)
	}
	return cid, nil
}
