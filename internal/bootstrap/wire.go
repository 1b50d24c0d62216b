package bootstrap

import (
	"log/slog"
	"net/http"

	"voicetask/internal/api"
	"voicetask/internal/audio"
	"voicetask/internal/config"
	"voicetask/internal/filing"
	"voicetask/internal/gateway"
	"voicetask/internal/logging"
	"voicetask/internal/ports"
	"voicetask/internal/providers/deepgram"
	"voicetask/internal/providers/gemini"
	"voicetask/internal/providers/monday"
	"voicetask/internal/providers/teams"
	"voicetask/internal/selection"
	"voicetask/internal/speech"
	"voicetask/internal/storage"
	"voicetask/internal/usecase"
	"voicetask/internal/vocab"
)

// DesktopServices is the assembled runtime graph of the desktop client.
type DesktopServices struct {
	Controller *usecase.SessionController
	Selection  *selection.Store
	Storage    *storage.Store
	Logger     *slog.Logger
	Config     config.Config
}

// Close releases the controller timers and the preferences database.
func (s DesktopServices) Close() error {
	if s.Controller != nil {
		s.Controller.Close()
	}
	if s.Storage != nil {
		return s.Storage.Close()
	}
	return nil
}

// ServerServices is the assembled runtime graph of the filing API.
type ServerServices struct {
	Server *api.Server
	Filing *filing.Service
	Logger *slog.Logger
	Config config.Config
}

// BuildDesktop wires the capture pipeline, selection and gateway client.
func BuildDesktop(eventSink ports.EventSink) (DesktopServices, error) {
	cfg, err := config.Load()
	if err != nil {
		return DesktopServices{}, err
	}
	logger := logging.New(cfg.Log.Level)

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return DesktopServices{}, err
	}

	client := gateway.NewClient(cfg.Client.APIBaseURL, cfg.Client.Timeout)
	selectionStore := selection.NewStore(store, client, selection.DefaultRoster(), logger.With("component", "selection"))

	recognizer := speech.NewRecognizer(
		audio.NewMicrophone(cfg.Audio.RecorderCommand),
		deepgram.NewProvider(deepgram.Config{
			APIKey:      cfg.Deepgram.APIKey,
			APIBaseURL:  cfg.Deepgram.APIBaseURL,
			Model:       cfg.Deepgram.Model,
			Language:    cfg.Deepgram.Language,
			SmartFormat: cfg.Deepgram.SmartFormat,
		}),
		speech.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			Streaming: ports.StreamingConfig{
				SampleRate:     cfg.Audio.SampleRate,
				Channels:       cfg.Audio.Channels,
				Encoding:       "linear16",
				InterimResults: true,
			},
			ChunkSize:      cfg.Audio.ChunkSize,
			StreamingGrace: cfg.Session.StreamingGrace,
			Logger:         logger.With("component", "speech"),
		},
	)

	controller := usecase.NewSessionController(
		recognizer,
		client,
		selectionStore,
		eventSink,
		usecase.Config{
			Inactivity:     cfg.Session.Inactivity,
			CountdownStart: cfg.Session.CountdownStart,
			Tick:           cfg.Session.Tick,
			DispatchDelay:  cfg.Session.DispatchDelay,
			SuccessDisplay: cfg.Session.SuccessDisplay,
			Logger:         logger.With("component", "session"),
		},
	)

	return DesktopServices{
		Controller: controller,
		Selection:  selectionStore,
		Storage:    store,
		Logger:     logger,
		Config:     cfg,
	}, nil
}

// BuildServer wires the filing pipeline behind the HTTP endpoints. Missing
// credentials do not fail the build; they surface on the request that needs them.
func BuildServer() (ServerServices, error) {
	cfg, err := config.Load()
	if err != nil {
		return ServerServices{}, err
	}
	logger := logging.New(cfg.Log.Level)

	vocabulary, err := vocab.Load(cfg.Rules.Path, cfg.Rules.IterationLimit)
	if err != nil {
		return ServerServices{}, err
	}

	httpClient := &http.Client{Timeout: cfg.Client.Timeout}
	enricher := gemini.NewEnricher(gemini.Config{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		BaseURL:    cfg.Gemini.BaseURL,
		HTTPClient: httpClient,
	})
	boardFactory := func() (ports.Board, error) {
		return monday.NewBoard(monday.Config{
			Token:         cfg.Board.Token,
			APIURL:        cfg.Board.APIURL,
			TaskBoardID:   cfg.Board.TaskBoardID,
			SprintBoardID: cfg.Board.SprintBoardID,
			SprintLimit:   cfg.Board.SprintLimit,
			HTTPClient:    httpClient,
		})
	}
	webhook := teams.NewWebhook(cfg.Teams.WebhookURL, httpClient)

	service := filing.NewService(vocabulary, enricher, boardFactory, webhook, logger.With("component", "filing"))
	server := api.NewServer(service, logger.With("component", "api"))

	return ServerServices{Server: server, Filing: service, Logger: logger, Config: cfg}, nil
}
