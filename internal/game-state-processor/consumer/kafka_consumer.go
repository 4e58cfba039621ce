package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement/internal/game-state-processor/repository"
	"github.com/radieske/sports-bet-settlement/internal/gamestate"
	"github.com/radieske/sports-bet-settlement/pkg/contracts/events"
)

// MessageReader é o subconjunto do kafka.Reader usado no loop
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// MessageWriter é usado pra DLQ
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Repo grava a atualização respeitando o ciclo de vida da partida
type Repo interface {
	Apply(ctx context.Context, g gamestate.Game, detail gamestate.Result, version int) (repository.Transition, error)
}

// SnapshotCache guarda o último estado pra consulta rápida na hora da aposta
type SnapshotCache interface {
	Set(ctx context.Context, g gamestate.Game) error
}

// Trigger dispara a liquidação quando a partida termina
type Trigger interface {
	GameFinished(ctx context.Context, g gamestate.Game) (bool, error)
}

// Processor consome game_state_updates, persiste, atualiza o cache e dispara a liquidação.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log     *zap.Logger
	Reader  MessageReader
	Repo    Repo
	Cache   SnapshotCache
	Trigger Trigger
	DLQ     MessageWriter // mensagens inválidas; nil descarta

	OnConsumed  func()       // métricas (counter++)
	OnPersist   func()       // métricas
	OnTriggered func()       // liquidações disparadas
	OnError     func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if err := p.Handle(ctx, m); err != nil {
			// a varredura de liquidação cobre o que se perder aqui
			p.Log.Warn("game state update not applied", zap.ByteString("key", m.Key), zap.Error(err))
		}
	}
}

// Handle processa uma mensagem; só erros de infraestrutura são devolvidos
func (p *Processor) Handle(ctx context.Context, m kafka.Message) error {
	if p.OnConsumed != nil {
		p.OnConsumed() // callback de métrica: mensagem consumida
	}

	var ev events.GameStateUpdate
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		p.Log.Warn("invalid message", zap.Error(err))
		p.fail("decode")
		p.deadLetter(ctx, m, err)
		return nil
	}

	g, detail, err := ToGame(ev)
	if err != nil {
		p.Log.Warn("invalid game state", zap.String("gameId", ev.GameID), zap.Error(err))
		p.fail("validate")
		p.deadLetter(ctx, m, err)
		return nil
	}

	tr, err := p.Repo.Apply(ctx, g, detail, ev.Version)
	if err != nil {
		p.fail("db_apply")
		return err
	}
	if !tr.Applied {
		p.Log.Debug("stale update discarded",
			zap.String("gameId", g.ID),
			zap.String("stored", string(tr.Prev)),
			zap.String("incoming", string(g.Status)),
			zap.Int("version", ev.Version),
		)
		return nil
	}
	if p.OnPersist != nil {
		p.OnPersist() // callback de métrica: persistência concluída
	}

	// não bloqueia a liquidação se falhar o cache
	if err := p.Cache.Set(ctx, tr.Game); err != nil {
		p.Log.Warn("redis set failed", zap.String("gameId", g.ID), zap.Error(err))
		p.fail("cache")
	}

	if tr.JustFinished() {
		ok, err := p.Trigger.GameFinished(ctx, tr.Game)
		if err != nil {
			p.Log.Warn("settlement trigger failed", zap.String("gameId", g.ID), zap.Error(err))
			p.fail("trigger")
			return nil
		}
		if ok && p.OnTriggered != nil {
			p.OnTriggered()
		}
	}
	return nil
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, cause error) {
	if p.DLQ == nil {
		return
	}
	msg := kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: []kafka.Header{{Key: "error", Value: []byte(cause.Error())}},
		Time:    time.Now(),
	}
	if err := p.DLQ.WriteMessages(ctx, msg); err != nil {
		p.Log.Warn("dlq publish failed", zap.Error(err))
		p.fail("dlq")
	}
}
