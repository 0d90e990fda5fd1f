// internal/core/domain/chat/relay.go
package chat

import (
	"context"
	"fmt"
	"strings"

	"crypto-exchange-web/internal/infrastructure/api"
	storage "crypto-exchange-web/internal/infrastructure/persistence/in_memory_storage"
	"crypto-exchange-web/pkg/logger"
)

const (
	// DefaultSessionID - общая сессия для клиентов без sid
	DefaultSessionID = "global"
	// DefaultStylePrompt - первое сообщение каждого диалога
	DefaultStylePrompt = "будь Розроботчиком кодов и отвечай кодом"
	// DefaultMaxHistory - сколько пар вопрос/ответ хранится после стилевого сообщения
	DefaultMaxHistory = 5

	errorReplyPrefix = "[Ошибка AI] "
)

// Observer получает исход каждого запроса к модели ("ok" | "error")
type Observer interface {
	IncAIRequest(outcome string)
}

// Config - параметры ретранслятора
type Config struct {
	StylePrompt         string
	MaxHistory          int
	PersistErrorReplies bool
}

// Relay - ретранслятор диалога в генеративную модель с коротким контекстом
type Relay struct {
	completer api.CompletionClient
	sessions  *storage.SessionStore
	cfg       Config
	observer  Observer
}

// NewRelay создает ретранслятор; пустые поля Config заменяются значениями по умолчанию
func NewRelay(completer api.CompletionClient, sessions *storage.SessionStore, cfg Config, observer Observer) *Relay {
	if strings.TrimSpace(cfg.StylePrompt) == "" {
		cfg.StylePrompt = DefaultStylePrompt
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}
	return &Relay{
		completer: completer,
		sessions:  sessions,
		cfg:       cfg,
		observer:  observer,
	}
}

// Converse добавляет реплику пользователя в диалог сессии и возвращает ответ модели.
// Никогда не возвращает ошибку: сбой модели превращается в текст ответа.
// Вызовы одной сессии выполняются последовательно.
func (r *Relay) Converse(ctx context.Context, sessionID, text string) string {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	sess := r.sessions.Session(sessionID)
	sess.Lock()
	defer sess.Unlock()

	before := sess.Turns()
	if sess.Len() == 0 {
		sess.Append(storage.Turn{Role: api.RoleUser, Text: r.cfg.StylePrompt})
	}
	sess.Append(storage.Turn{Role: api.RoleUser, Text: text})
	sess.TrimHistory(r.cfg.MaxHistory)

	reply, err := r.completer.Generate(ctx, sess.Turns())
	if err != nil {
		logger.Warn("⚠️ AI [%s]: запрос к модели не удался: %v", sessionID, err)
		r.observe("error")

		reply = errorReplyPrefix + err.Error()
		if !r.cfg.PersistErrorReplies {
			sess.Restore(before)
			return reply
		}
	} else {
		r.observe("ok")
		logger.Debug("🤖 AI [%s]: ответ %d символов, в истории %d сообщений", sessionID, len(reply), sess.Len()+1)
	}

	sess.Append(storage.Turn{Role: api.RoleModel, Text: reply})
	return reply
}

func (r *Relay) observe(outcome string) {
	if r.observer != nil {
		r.observer.IncAIRequest(outcome)
	}
}

// String для логов
func (c Config) String() string {
	return fmt.Sprintf("history=%d persistErrors=%v", c.MaxHistory, c.PersistErrorReplies)
}
