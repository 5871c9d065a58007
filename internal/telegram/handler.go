// Package telegram lets riders submit comments and read per-mode stats
// through a Telegram bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cognicore/jaksense/pkg/jaksense"
	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
)

const helpText = `Kirim komentar tentang transportasi Jakarta.

/lapor <moda> <komentar>  analisis dan simpan komentar
/stats <moda>             ringkasan sentimen per moda
/reset                    hapus komentar yang pernah dikirim
/help                     bantuan ini

Moda: jak (JakLingko), tj (TransJakarta), krl (KRL)`

// Handler turns one chat message into one reply. Each chat is its own
// dashboard session.
type Handler struct {
	engine *jaksense.Engine
	logger *slog.Logger
}

// NewHandler creates a Handler backed by engine.
func NewHandler(engine *jaksense.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

// SessionID is the session a chat's comments are stored under.
func SessionID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

// Handle answers text sent in chat chatID.
func (h *Handler) Handle(ctx context.Context, chatID int64, text string) string {
	cmd, args := splitCommand(text)
	switch cmd {
	case "/start", "/help":
		return helpText
	case "/lapor":
		return h.report(ctx, chatID, args)
	case "/stats":
		return h.stats(ctx, chatID, args)
	case "/reset":
		if err := h.engine.Reset(ctx, SessionID(chatID)); err != nil {
			h.logger.Error("telegram reset failed", "chat", chatID, "error", err)
			return "Gagal menghapus sesi, coba lagi nanti."
		}
		return "Komentar kamu sudah dihapus."
	default:
		return "Perintah tidak dikenal. Ketik /help untuk bantuan."
	}
}

func (h *Handler) report(ctx context.Context, chatID int64, args string) string {
	modeArg, body, _ := strings.Cut(args, " ")
	mode, err := comment.ParseMode(modeArg)
	if err != nil {
		return "Moda tidak dikenal. Contoh: /lapor tj busnya telat"
	}

	res, err := h.engine.Analyze(ctx, SessionID(chatID), mode, body)
	switch {
	case errors.Is(err, internalerr.ErrEmptyComment):
		return "Komentar tidak boleh kosong."
	case err != nil:
		h.logger.Error("telegram analyze failed", "chat", chatID, "error", err)
		return "Komentar gagal dianalisis, coba lagi nanti."
	}

	rec := res.Record
	tags := "Tidak terdeteksi"
	if rec.HasTags() {
		tags = strings.Join(rec.TagStrings(), ", ")
	}
	return fmt.Sprintf("Sentimen: %s (%.0f%%)\nModa: %s\nAspek: %s",
		rec.Sentiment, rec.Confidence*100, rec.Mode.DisplayName(), tags)
}

func (h *Handler) stats(ctx context.Context, chatID int64, args string) string {
	mode, err := comment.ParseMode(args)
	if err != nil {
		return "Moda tidak dikenal. Contoh: /stats krl"
	}
	d, err := h.engine.Dashboard(ctx, SessionID(chatID), mode)
	if err != nil {
		h.logger.Error("telegram stats failed", "chat", chatID, "error", err)
		return "Statistik tidak tersedia, coba lagi nanti."
	}
	if d.NoData {
		return fmt.Sprintf("Belum ada data untuk %s.", mode.DisplayName())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d komentar\n", mode.DisplayName(), d.View.Total)
	for _, label := range h.engine.Router().Labels() {
		pct, _ := d.Percent(label)
		fmt.Fprintf(&b, "%s: %d (%.1f%%)\n", label, d.View.Count(label), pct)
	}
	if d.HasChart {
		b.WriteString("Aspek teratas:\n")
		for i, tc := range d.Chart {
			fmt.Fprintf(&b, "%d. %s (%d)\n", i+1, tc.Tag, tc.Count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// splitCommand separates "/cmd@botname rest" into "/cmd" and "rest".
func splitCommand(text string) (cmd, args string) {
	text = strings.TrimSpace(text)
	cmd, args, _ = strings.Cut(text, " ")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), strings.TrimSpace(args)
}
