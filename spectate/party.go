package spectate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Laisky/zap"
	"github.com/go-redis/redis/v8"

	"github.com/matchops/arena-api/common/apierr"
	"github.com/matchops/arena-api/common/config"
	"github.com/matchops/arena-api/common/logger"
	"github.com/matchops/arena-api/proxy"
	"github.com/matchops/arena-api/steamproto"
)

const (
	// partyCodePollAttempts × partyCodePollInterval bounds how long party
	// creation waits for the bot to publish the join code.
	partyCodePollAttempts = 100
	partyCodePollInterval = 100 * time.Millisecond
)

// CustomMatch is the result of opening a bot-hosted party.
type CustomMatch struct {
	PartyID     uint64 `json:"party_id"`
	PartyCode   string `json:"party_code"`
	BotUsername string `json:"bot_username"`
	AccountID   uint32 `json:"account_id"`
}

// CreateCustomMatch opens a party: create, wait for the bot to publish the
// join code to the KV store, switch the bot to the spectator slot, mark it
// ready. A detached timer leaves the party after the lobby duration so no
// request-scoped state is retained.
func (e *Engine) CreateCustomMatch(ctx context.Context) (*CustomMatch, error) {
	var created steamproto.PartyCreateResponse
	var botUsername string
	err := proxy.Retry(ctx, 3, 10*time.Millisecond, func(ctx context.Context) error {
		var callErr error
		botUsername, callErr = e.proxy.Call(ctx, proxy.Request{
			MsgType:        steamproto.KindPartyCreate,
			Msg:            &steamproto.PartyCreateRequest{ClientVersion: uint32(config.ClientVersion)},
			Cooldown:       time.Minute,
			InAnyGroups:    []string{"custom-match"},
			RequestTimeout: 5 * time.Second,
		}, &created)
		return callErr
	})
	if err != nil {
		return nil, apierr.Internal(err, "party creation failed")
	}
	if created.Result != steamproto.ResultSuccess || created.PartyID == 0 {
		return nil, apierr.Internal(nil, "bot fleet could not open a party")
	}

	match, err := e.waitForPartyCode(ctx, created.PartyID)
	if err != nil {
		return nil, err
	}
	match.BotUsername = botUsername

	// The remaining transitions are pinned to the bot that owns the lobby.
	for _, kind := range []int32{steamproto.KindPartyJoinSpectatorSlot, steamproto.KindPartySetReady} {
		var ack steamproto.PartyActionResponse
		err := proxy.Retry(ctx, 3, 10*time.Millisecond, func(ctx context.Context) error {
			_, callErr := e.proxy.Call(ctx, proxy.Request{
				MsgType:        kind,
				Msg:            &steamproto.PartyActionRequest{PartyID: created.PartyID, Ready: true},
				Cooldown:       time.Second,
				Username:       botUsername,
				RequestTimeout: 5 * time.Second,
			}, &ack)
			return callErr
		})
		if err != nil {
			return nil, apierr.Internal(err, "party transition failed")
		}
	}

	e.scheduleLeaveParty(created.PartyID, botUsername)
	return match, nil
}

// waitForPartyCode polls the KV key "{party_id}" where the bot publishes
// "{bot_username}:{account_id}:{party_code}" once the lobby exists.
func (e *Engine) waitForPartyCode(ctx context.Context, partyID uint64) (*CustomMatch, error) {
	key := strconv.FormatUint(partyID, 10)
	for i := 0; i < partyCodePollAttempts; i++ {
		value, err := e.rdb.Get(ctx, key).Result()
		switch {
		case err == nil:
			parts := strings.SplitN(value, ":", 3)
			if len(parts) != 3 {
				return nil, apierr.Internal(nil, "malformed party record")
			}
			accountID, parseErr := strconv.ParseUint(parts[1], 10, 32)
			if parseErr != nil {
				return nil, apierr.Internal(parseErr, "malformed party account id")
			}
			return &CustomMatch{
				PartyID:   partyID,
				PartyCode: parts[2],
				AccountID: uint32(accountID),
			}, nil
		case err != redis.Nil:
			logger.Logger.Debug("party code poll failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(partyCodePollInterval):
		}
	}
	return nil, apierr.NotFound("party %d never published a join code", partyID)
}

// scheduleLeaveParty leaves the party after the lobby duration on a
// detached context; the timer holds no request-scoped state.
func (e *Engine) scheduleLeaveParty(partyID uint64, botUsername string) {
	time.AfterFunc(config.SpectateLobbyDuration, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var ack steamproto.PartyActionResponse
		_, err := e.proxy.Call(ctx, proxy.Request{
			MsgType:        steamproto.KindPartyLeave,
			Msg:            &steamproto.PartyActionRequest{PartyID: partyID},
			Cooldown:       time.Second,
			Username:       botUsername,
			RequestTimeout: 5 * time.Second,
		}, &ack)
		if err != nil {
			logger.Logger.Warn("leave party failed",
				zap.Uint64("party_id", partyID), zap.Error(err))
		}
	})
}

// GetCustomMatchID reads the match id the KV store holds once the lobby
// started, under "{party_id}:match-id".
func (e *Engine) GetCustomMatchID(ctx context.Context, partyID uint64) (uint64, error) {
	value, err := e.rdb.Get(ctx, fmt.Sprintf("%d:match-id", partyID)).Result()
	if err == redis.Nil {
		return 0, apierr.NotFound("party %d has no match yet", partyID)
	}
	if err != nil {
		return 0, apierr.Internal(err, "party match-id lookup failed")
	}
	matchID, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, apierr.Internal(err, "malformed party match id")
	}
	return matchID, nil
}
