package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/internal/repository"
	"github.com/resortstay/resort-booking/pkg/middleware"
	"github.com/resortstay/resort-booking/pkg/response"
)

// loadActor resolves the authenticated actor from the request context. The
// JWT middleware only carries the actor id; the full actor, including the
// managed resort set policy checks need, is loaded here.
func loadActor(c *gin.Context, actors repository.ActorRepository) (*domain.Actor, bool) {
	actorID := c.GetString(middleware.ContextKeyActorID)
	if actorID == "" {
		response.Unauthorized(c, "actor not authenticated")
		return nil, false
	}
	actor, err := actors.GetByID(c.Request.Context(), actorID)
	if err != nil {
		response.Unauthorized(c, "unknown actor")
		return nil, false
	}
	return actor, true
}

// apiKeyValidator resolves integration API keys against stored hashes
func apiKeyValidator(actors repository.ActorRepository, hash func(string) string) middleware.APIKeyValidator {
	return func(ctx context.Context, key string) (string, string, error) {
		actor, err := actors.GetByAPIKeyHash(ctx, hash(key))
		if err != nil {
			return "", "", err
		}
		return actor.ID, actor.Role.String(), nil
	}
}
