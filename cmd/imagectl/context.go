package main

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"go-raffle-images/internal/apiclient"
	"go-raffle-images/internal/config"
	"go-raffle-images/internal/editor"
	"go-raffle-images/internal/imagestore"
	"go-raffle-images/internal/logger"
	"go-raffle-images/internal/messages"
	"go-raffle-images/internal/observer"
	"go-raffle-images/pkg/validation"
)

type commandFlags struct {
	baseURL  string
	token    string
	messages string
	raffleID int64
	verbose  bool
}

type commandContext struct {
	flags *commandFlags

	clientOnce sync.Once
	config     *config.ClientConfig
	client     *apiclient.Client
	clientErr  error
}

func newCommandContext(flags *commandFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureClient() (*apiclient.Client, error) {
	c.clientOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.clientErr = err
			return
		}

		cfg, err := config.LoadClientFromEnv()
		if err != nil {
			c.clientErr = err
			return
		}
		if v := strings.TrimSpace(c.flags.baseURL); v != "" {
			cfg.BaseURL = v
		}
		if v := strings.TrimSpace(c.flags.token); v != "" {
			cfg.Token = v
		}
		if v := strings.TrimSpace(c.flags.messages); v != "" {
			cfg.MessagesFile = v
		}

		catalog, err := messages.LoadOrDefault(cfg.MessagesFile)
		if err != nil {
			c.clientErr = err
			return
		}

		client, err := apiclient.New(apiclient.Options{
			BaseURL: cfg.BaseURL,
			Token:   cfg.Token,
			Timeout: cfg.Timeout,
			Catalog: catalog,
		})
		if err != nil {
			c.clientErr = err
			return
		}
		c.config = cfg
		c.client = client
	})
	return c.client, c.clientErr
}

// session is one loaded editor plus the form value it publishes to
type session struct {
	store   imagestore.Store
	editor  *editor.Editor
	form    *observer.FormValue
	metrics *observer.MetricsObserver
}

func (c *commandContext) openSession(ctx context.Context, stderr io.Writer) (*session, error) {
	client, err := c.ensureClient()
	if err != nil {
		return nil, err
	}

	logger.UseText(stderr)
	if c.flags.verbose {
		logger.Logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.Logger.SetLevel(logrus.WarnLevel)
	}

	form := observer.NewFormValue()
	metrics := observer.NewMetricsObserver()
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(form)
	publisher.Subscribe(metrics)
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))

	opts := editor.Options{
		Mode:      editor.ModeCreate,
		Validator: validation.NewUploadValidator(c.config.Uploads),
		Publisher: publisher,
	}
	if c.flags.raffleID > 0 {
		opts.Mode = editor.ModeEdit
		opts.TargetID = c.flags.raffleID
	}

	store := imagestore.NewHTTPStore(client)
	ed, err := editor.New(store, opts)
	if err != nil {
		return nil, err
	}
	if err := ed.Load(ctx); err != nil {
		return nil, err
	}
	return &session{store: store, editor: ed, form: form, metrics: metrics}, nil
}

// close logs the editor counters at debug level
func (s *session) close() {
	logger.WithFields(logrus.Fields(s.metrics.GetMetrics())).Debug("Editor session finished")
}

// persist attaches the collection to the raffle in edit mode; create mode keeps order client-side
func (s *session) persist(ctx context.Context) error {
	if s.editor.Mode() != editor.ModeEdit {
		return nil
	}
	_, err := s.store.SaveOrder(ctx, s.editor.TargetID(), s.form.Images())
	return err
}
