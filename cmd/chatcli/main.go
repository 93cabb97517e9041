// Command chatcli is the terminal front end of the chat room.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"lapor-chat/internal/client"
	"lapor-chat/internal/composer"
	"lapor-chat/internal/config"
	"lapor-chat/internal/imtypes"
	"lapor-chat/internal/logging"
	"lapor-chat/internal/media"
	"lapor-chat/internal/notification"
)

const help = `Perintah:
  /anon                  masuk tanpa akun
  /masuk <email> <sandi> masuk dengan email
  /daftar <email> <sandi> buat akun baru
  /keluar                keluar dari sesi
  /lokasi                kirim lokasi saat ini
  /kamera <path>         ambil foto dan kirim
  /gambar <path>         kirim gambar dari galeri
  /video <path>          kirim video
  /hapus <nomor>         hapus pesan
  /pesan                 tampilkan ulang pesan
  /bantuan               tampilkan bantuan ini
  /selesai               tutup aplikasi
Baris lain dikirim sebagai pesan teks.`

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	position, err := newFixedPosition(cfg.Client.Position)
	if err != nil {
		log.Fatalf("client position: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(client.Config{
		APIURL:   cfg.Client.APIURL,
		WSURL:    cfg.Client.WSURL,
		Timeout:  cfg.Client.Timeout,
		PongWait: time.Duration(cfg.WebSocket.PongWaitSeconds) * time.Second,
	}, logger)
	term := newTerminal(os.Stdin, os.Stdout)

	app := &chatApp{
		ctx:  ctx,
		api:  api,
		term: term,
		log:  logger,
		chat: composer.New(composer.Options{
			Backend:   api,
			Location:  position,
			Alerter:   term,
			Confirmer: term,
			Open:      composer.OpenLocal,
			Logger:    logger,
		}),
		registrar: notification.NewRegistrar(configuredPush(cfg.Client.PushToken), configuredPush(cfg.Client.PushToken), api, logger),
	}
	app.chat.OnChange(app.onChange)
	unsubscribe := api.OnAuthStateChanged(app.onAuthState)
	defer unsubscribe()

	term.Info(help)
	app.loop()

	app.wg.Wait()
	app.chat.Unsubscribe()
}

type chatApp struct {
	ctx       context.Context
	api       *client.Client
	chat      *composer.Composer
	registrar *notification.Registrar
	term      *terminal
	log       *zap.SugaredLogger

	mu       sync.Mutex
	userID   string
	shownVer uint64
	wasBusy  bool
	wg       sync.WaitGroup
}

func (a *chatApp) onAuthState(id *client.Identity) {
	a.mu.Lock()
	a.shownVer = 0
	if id == nil {
		a.userID = ""
	} else {
		a.userID = id.UserID
	}
	a.mu.Unlock()

	if id == nil {
		a.chat.Unsubscribe()
		a.term.Info("Belum masuk. Ketik /anon, /masuk atau /daftar.")
		return
	}

	who := "anonim"
	if id.Email != "" {
		who = id.Email
	}
	a.term.Info(fmt.Sprintf("Masuk sebagai %s", who))

	a.background(func(ctx context.Context) {
		if err := a.chat.Subscribe(ctx); err != nil {
			a.term.Alert(err.Error())
		}
		if err := a.registrar.OnSessionEstablished(ctx, id.UserID); err != nil {
			a.log.Warnw("register push token", "error", err)
		}
	})
}

// onChange reprints the room when a new snapshot lands and shows a sending
// marker while any action is in flight.
func (a *chatApp) onChange() {
	version := a.chat.Version()
	busy := a.chat.Busy()

	a.mu.Lock()
	reprint := version != a.shownVer
	a.shownVer = version
	busyChanged := busy != a.wasBusy
	a.wasBusy = busy
	userID := a.userID
	a.mu.Unlock()

	if reprint {
		a.term.PrintFeed(a.chat.Views(userID, nil))
	}
	if busyChanged && busy {
		a.term.Info("mengirim…")
	}
}

func (a *chatApp) background(fn func(ctx context.Context)) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn(a.ctx)
	}()
}

func (a *chatApp) loop() {
	for {
		var line string
		select {
		case <-a.ctx.Done():
			return
		case l, ok := <-a.term.Lines():
			if !ok {
				return
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			a.background(func(ctx context.Context) { _ = a.chat.SendText(ctx, line) })
			continue
		}

		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		switch cmd {
		case "/anon":
			a.report(a.api.SignInAnonymously(a.ctx))
		case "/masuk", "/daftar":
			email, password, ok := credentials(rest)
			if !ok {
				a.term.Alert("Harap isi email dan kata sandi")
				continue
			}
			if cmd == "/masuk" {
				a.report(a.api.SignIn(a.ctx, email, password))
			} else {
				a.report(a.api.Register(a.ctx, email, password))
			}
		case "/keluar":
			a.report(a.api.SignOut(a.ctx))
		case "/lokasi":
			a.background(func(ctx context.Context) { _ = a.chat.SendLocation(ctx) })
		case "/kamera":
			a.sendCaptured(media.SourceViewfinder, imtypes.ImageMessageType, rest)
		case "/gambar":
			a.sendCaptured(media.SourceLibrary, imtypes.ImageMessageType, rest)
		case "/video":
			a.sendCaptured(media.SourceCamera, imtypes.VideoMessageType, rest)
		case "/hapus":
			a.deleteNth(rest)
		case "/pesan":
			a.mu.Lock()
			userID := a.userID
			a.mu.Unlock()
			a.term.PrintFeed(a.chat.Views(userID, nil))
		case "/bantuan":
			a.term.Info(help)
		case "/selesai":
			return
		default:
			a.term.Alert("Perintah tidak dikenal: " + cmd)
		}
	}
}

func credentials(rest string) (email, password string, ok bool) {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

func (a *chatApp) report(err error) {
	if err != nil {
		a.term.Alert(err.Error())
	}
}

// sendCaptured runs the picked file through the acquirer, which checks its
// type, and uploads it unless the user canceled.
func (a *chatApp) sendCaptured(src media.Source, kind imtypes.MessageType, path string) {
	dev := media.PathDevice(path)
	file, err := media.NewAcquirer(dev, dev, dev).Acquire(a.ctx, src, kind)
	if err != nil {
		a.term.Alert(err.Error())
		return
	}
	if file.Canceled {
		a.term.Info("dibatalkan")
		return
	}

	a.background(func(ctx context.Context) {
		if src == media.SourceViewfinder {
			_ = a.chat.SendPhoto(ctx, file.URI)
			return
		}
		_ = a.chat.SendMedia(ctx, file.URI, file.Kind)
	})
}

func (a *chatApp) deleteNth(arg string) {
	n, err := strconv.Atoi(arg)
	msgs := a.chat.Messages()
	if err != nil || n < 1 || n > len(msgs) {
		a.term.Alert("Nomor pesan tidak valid")
		return
	}
	err = a.chat.DeleteMessage(a.ctx, msgs[n-1].ID)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.log.Debugw("delete message", "error", err)
	}
}
