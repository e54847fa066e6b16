package match

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/combatlog/internal/database"
	"github.com/leighmacdonald/combatlog/internal/database/query"
	"github.com/leighmacdonald/combatlog/internal/httphelper"
	"github.com/leighmacdonald/combatlog/pkg/combatlog"
	"github.com/leighmacdonald/combatlog/pkg/zstd"
)

var (
	ErrLogTooLarge     = errors.New("combat log exceeds the maximum upload size")
	ErrUnsupportedType = errors.New("combat log must be plain text")
)

type matchHandler struct {
	Matches
	maxLogSize int64
}

func NewMatchHandler(engine *gin.Engine, matches Matches, maxLogSize int64) {
	handler := matchHandler{Matches: matches, maxLogSize: maxLogSize}

	engine.GET("/api/matches", handler.onAPIGetMatches())
	engine.POST("/api/match", handler.onAPIPostMatch())
	engine.GET("/api/match/:match_id", handler.onAPIGetKills())
	engine.GET("/api/match/:match_id/summary", handler.onAPIGetSummary())
	engine.GET("/api/match/:match_id/:hero_name/items", handler.onAPIGetItems())
	engine.GET("/api/match/:match_id/:hero_name/spells", handler.onAPIGetSpells())
	engine.GET("/api/match/:match_id/:hero_name/damage", handler.onAPIGetDamage())
}

func (h matchHandler) onAPIPostMatch() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		body, errRead := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, h.maxLogSize))
		if errRead != nil {
			var maxErr *http.MaxBytesError
			if errors.As(errRead, &maxErr) {
				httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusRequestEntityTooLarge, ErrLogTooLarge,
					"Maximum size is %d bytes", h.maxLogSize))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, errors.Join(errRead, httphelper.ErrBadRequest)))

			return
		}

		body, errDecompress := zstd.MaybeDecompress(body)
		if errDecompress != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, errors.Join(errDecompress, httphelper.ErrBadRequest)))

			return
		}

		if !isText(body) {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusUnsupportedMediaType, ErrUnsupportedType))

			return
		}

		matchID, errIngest := h.Ingest(ctx, string(body))
		if errIngest != nil {
			if errors.Is(errIngest, combatlog.ErrEmptyLog) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, errors.Join(errIngest, httphelper.ErrBadRequest)))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errIngest, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusCreated, matchID)
	}
}

// isText accepts anything detected as text/plain or one of its subtypes.
func isText(body []byte) bool {
	for mime := mimetype.Detect(body); mime != nil; mime = mime.Parent() {
		if mime.Is("text/plain") {
			return true
		}
	}

	return false
}

func (h matchHandler) onAPIGetMatches() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		filter := query.Filter{Desc: true}
		if !httphelper.BindQuery(ctx, &filter) {
			return
		}

		infos, errMatches := h.Matches.Matches(ctx, filter)
		if errMatches != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errMatches, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, infos)
	}
}

func (h matchHandler) onAPIGetKills() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		matchID, idFound := httphelper.GetInt64Param(ctx, "match_id")
		if !idFound {
			return
		}

		kills, errKills := h.HeroKills(ctx, matchID)
		if errKills != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errKills, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, kills)
	}
}

func (h matchHandler) onAPIGetSummary() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		matchID, idFound := httphelper.GetInt64Param(ctx, "match_id")
		if !idFound {
			return
		}

		summary, errSummary := h.Summary(ctx, matchID)
		if errSummary != nil {
			if errors.Is(errSummary, database.ErrNoResult) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusNotFound, httphelper.ErrNotFound))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errSummary, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, summary)
	}
}

func (h matchHandler) onAPIGetItems() gin.HandlerFunc {
	return heroHandler(h.HeroItems)
}

func (h matchHandler) onAPIGetSpells() gin.HandlerFunc {
	return heroHandler(h.HeroSpells)
}

func (h matchHandler) onAPIGetDamage() gin.HandlerFunc {
	return heroHandler(h.HeroDamage)
}

// heroHandler serves the per hero aggregations which share the same params and error handling.
func heroHandler[T any](query func(ctx context.Context, matchID int64, hero string) ([]T, error)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		matchID, idFound := httphelper.GetInt64Param(ctx, "match_id")
		if !idFound {
			return
		}

		hero, heroFound := httphelper.GetStringParam(ctx, "hero_name")
		if !heroFound {
			return
		}

		results, errQuery := query(ctx, matchID, hero)
		if errQuery != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errQuery, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, results)
	}
}
