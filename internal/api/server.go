package api

import (
	"github.com/alexvogt/chesscoach/internal/db"
	"github.com/alexvogt/chesscoach/internal/engine"
	"github.com/alexvogt/chesscoach/internal/jobs"
	"github.com/alexvogt/chesscoach/internal/repository"
	"github.com/alexvogt/chesscoach/internal/services"
)

// Server holds the HTTP handler dependencies. All endpoints speak JSON.
type Server struct {
	DB              *db.DB
	ProfileService  services.ProfileService
	GameService     services.GameService
	AnalysisService services.AnalysisService
	GameRepo        repository.GameRepository
	ErrorRepo       repository.ErrorRepository
	StatsRepo       repository.StatsRepository
	Queue           jobs.JobQueue
	EnginePool      *engine.Pool
}
