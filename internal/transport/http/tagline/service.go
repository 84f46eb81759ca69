package tagline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/process"

	"cat-tagline-go/internal/domain/eventbus"
	domaintagline "cat-tagline-go/internal/domain/tagline"
	"cat-tagline-go/internal/platform/config"
	platformerrors "cat-tagline-go/internal/platform/errors"
	httptransport "cat-tagline-go/internal/transport/http"
	"cat-tagline-go/internal/utils"
)

const (
	modeLocal    = "local"
	modeDeployed = "deployed"
)

// Runner runs the pipeline once.
type Runner interface {
	Run(ctx context.Context) *domaintagline.Result
}

// Factory builds a runner for the credential chain of one request.
type Factory func(chain config.CredentialChain) (Runner, error)

// Options configures the tagline HTTP service.
type Options struct {
	Config    *config.Config
	Logger    *utils.Logger
	Events    eventbus.Publisher
	LookupEnv func(string) (string, bool)
	// Factory defaults to domain tagline.NewGenerator.
	Factory Factory
	// ProgressClients reports connected progress sockets, optional.
	ProgressClients func() int
}

// Service exposes the pipeline over HTTP. Only one run is in flight at a time.
type Service struct {
	cfg             *config.Config
	logger          *utils.Logger
	lookupEnv       func(string) (string, bool)
	factory         Factory
	progressClients func() int

	running sync.Mutex
	started time.Time
}

// NewService 创建新的 Tagline 服务实例
func NewService(opts Options) (*Service, error) {
	if opts.Config == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "tagline.http.new", "config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.DefaultLogger
	}
	lookupEnv := opts.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	s := &Service{
		cfg:             opts.Config,
		logger:          logger,
		lookupEnv:       lookupEnv,
		factory:         opts.Factory,
		progressClients: opts.ProgressClients,
		started:         time.Now(),
	}
	if s.factory == nil {
		events := opts.Events
		s.factory = func(chain config.CredentialChain) (Runner, error) {
			return domaintagline.NewGenerator(domaintagline.Options{
				Chain:  chain,
				Config: opts.Config,
				Logger: logger,
				Events: events,
			})
		}
	}
	return s, nil
}

// Register 注册 Tagline 相关的 HTTP 路由
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.GET("/status", s.handleStatus)
	router.POST("/generate", s.handleGenerate)
	router.GET("/image", s.handleImage)

	s.logger.InfoTag("HTTP", "Tagline 服务路由注册完成")
	return nil
}

func (s *Service) mode() string {
	if s.cfg.Web.Deployed {
		return modeDeployed
	}
	return modeLocal
}

// handleStatus 服务状态
// @Summary Service status
// @Description Reports deployment mode, credential availability and process stats.
// @Tags Tagline
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /status [get]
func (s *Service) handleStatus(c *gin.Context) {
	status := StatusResponse{
		Mode:    s.mode(),
		Process: s.processStats(c.Request.Context()),
	}

	credential, err := config.WebChain(s.cfg, "", "", s.lookupEnv).Resolve()
	switch {
	case err == nil:
		status.CredentialConfigured = true
		status.CredentialSource = credential.Source
		if status.Mode == modeLocal {
			status.Banner = "Running locally with API key from .env file"
		} else {
			status.Banner = "Running deployed with API key from secrets"
		}
	case status.Mode == modeLocal:
		status.Banner = "Please set your OPENAI_API_KEY in the .env file to use this app!"
		status.Hint = "Copy .env.example to .env and add your OpenAI API key"
	default:
		status.NeedsAPIKey = true
		status.Banner = "OpenAI API Key Required"
		status.Hint = "Please enter your OpenAI API key below to continue"
	}

	if _, err := os.Stat(s.cfg.Image.OutputPath); err == nil {
		status.ImageAvailable = true
	}
	if s.progressClients != nil {
		status.ProgressClients = s.progressClients()
	}

	httptransport.RespondSuccess(c, http.StatusOK, status, "ok")
}

// handleGenerate 生成猫咪标语
// @Summary Run the cat tagline pipeline once
// @Description Fetches a random cat, describes it and writes a tagline.
// @Tags Tagline
// @Accept json
// @Produce json
// @Param request body GenerateRequest false "Optional API key"
// @Success 200 {object} GenerateResponse
// @Failure 400 {object} httptransport.APIResponse
// @Failure 409 {object} httptransport.APIResponse
// @Router /generate [post]
func (s *Service) handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid request body", gin.H{"error": err.Error()})
		return
	}

	if !s.running.TryLock() {
		httptransport.RespondError(c, http.StatusConflict, "a generation is already in progress", nil)
		return
	}
	defer s.running.Unlock()

	runner, err := s.factory(config.WebChain(s.cfg, "", req.APIKey, s.lookupEnv))
	if err != nil {
		if platformerrors.IsKind(err, platformerrors.KindConfig) {
			s.logger.WarnTag("HTTP", "generate rejected: %v", err)
			httptransport.RespondError(c, http.StatusBadRequest, s.setupGuidance(), gin.H{"error": "configuration"})
			return
		}
		s.logger.ErrorTag("HTTP", "generate failed to start: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "unexpected error", nil)
		return
	}

	result := runner.Run(c.Request.Context())
	if !result.Success {
		if cause := result.Err(); cause != nil && !errors.Is(cause, context.Canceled) {
			s.logger.WarnTag("HTTP", "run %s failed: %v", result.RunID, cause)
		}
		c.JSON(http.StatusOK, httptransport.APIResponse{
			Success: false,
			Message: result.Error,
			Code:    http.StatusOK,
			Data:    GenerateResponse{RunID: result.RunID, Error: result.Error},
		})
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, GenerateResponse{
		RunID:          result.RunID,
		ImageURL:       "/api/image?v=" + result.RunID,
		Description:    result.Description,
		Tagline:        result.Tagline,
		DisplayTagline: result.DisplayTagline(),
	}, "Generated new cat content!")
}

// handleImage 返回当前图片
// @Summary Current cat image
// @Tags Tagline
// @Produce jpeg
// @Success 200 {file} file
// @Failure 404 {object} httptransport.APIResponse
// @Router /image [get]
func (s *Service) handleImage(c *gin.Context) {
	path := s.cfg.Image.OutputPath
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		httptransport.RespondError(c, http.StatusNotFound, "no cat image yet", nil)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.File(path)
}

func (s *Service) setupGuidance() string {
	if s.cfg.Web.Deployed {
		return "OpenAI API key required. Please enter your OpenAI API key to continue."
	}
	return "Configuration error: OPENAI_API_KEY is required. Make sure to set your OPENAI_API_KEY in a .env file."
}

func (s *Service) processStats(ctx context.Context) ProcessStats {
	stats := ProcessStats{
		PID:           int32(os.Getpid()),
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: time.Since(s.started).Seconds(),
	}
	proc, err := process.NewProcessWithContext(ctx, stats.PID)
	if err != nil {
		s.logger.DebugTag("HTTP", "process stats unavailable: %v", err)
		return stats
	}
	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		stats.RSSBytes = mem.RSS
	}
	return stats
}
