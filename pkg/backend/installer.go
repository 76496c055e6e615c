// SPDX-License-Identifier: Apache-2.0
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/Work-Fort/Onboard/pkg/github"
	"github.com/Work-Fort/Onboard/pkg/signing"
	"github.com/Work-Fort/Onboard/pkg/util"
)

const (
	checksumsAsset = "SHA256SUMS"
	signatureAsset = "SHA256SUMS.asc"

	// Share of progress given to each phase of a real install
	downloadShare = 90
	verifyShare   = 5
)

// ErrNoAsset is returned when a release lacks the backend build for this architecture
var ErrNoAsset = errors.New("release has no backend asset for this architecture")

// HostArch names the running architecture the way release assets do
func HostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	default:
		return runtime.GOARCH
	}
}

// InstallerOptions configures an Installer
type InstallerOptions struct {
	// Repo is the GitHub "owner/repo" publishing the backend. When empty
	// the installer simulates a download over SimulateDuration.
	Repo       string
	Asset      string
	Arch       string
	InstallDir string
	// SigningKey is a public key file used to verify SHA256SUMS.asc
	SigningKey string

	GitHub           *github.Client
	SimulateDuration time.Duration
	Clock            clockwork.Clock
}

// Installer is the host side of the backend download. Start kicks off
// the work and Progress reports how far along it is.
type Installer struct {
	opts InstallerOptions

	mu        sync.Mutex
	running   bool
	resolving bool
	// gen changes on Cancel so a start resolving its release can tell
	// it was cancelled
	gen       uint64
	progress  int
	err       error
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewInstaller creates an installer
func NewInstaller(opts InstallerOptions) *Installer {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.SimulateDuration <= 0 {
		opts.SimulateDuration = 10 * time.Second
	}
	if opts.Asset == "" {
		opts.Asset = "onboard-backend"
	}
	if opts.Arch == "" {
		opts.Arch = HostArch()
	}
	if opts.GitHub == nil {
		opts.GitHub = github.NewClient("", "")
	}
	return &Installer{opts: opts}
}

// Simulated reports whether no release repository is configured
func (i *Installer) Simulated() bool {
	return strings.TrimSpace(i.opts.Repo) == ""
}

// AssetName is the release asset for the configured architecture
func (i *Installer) AssetName() string {
	return fmt.Sprintf("%s-%s.xz", i.opts.Asset, i.opts.Arch)
}

// BinaryPath is where the installed backend ends up
func (i *Installer) BinaryPath() string {
	return filepath.Join(i.opts.InstallDir, i.opts.Asset)
}

// Start begins a download. It is a no-op while one is running. Release
// resolution happens before returning, so a missing release or asset is
// reported to the caller rather than through Progress. The lock is not
// held during resolution.
func (i *Installer) Start(ctx context.Context) error {
	i.mu.Lock()
	if i.running || i.resolving {
		i.mu.Unlock()
		log.Debug("installer: start ignored, already running")
		return nil
	}

	i.progress = 0
	i.err = nil
	i.startedAt = i.opts.Clock.Now()

	if i.Simulated() {
		log.Info("installer: simulating backend download", "duration", i.opts.SimulateDuration)
		i.running = true
		i.mu.Unlock()
		return nil
	}
	i.resolving = true
	gen := i.gen
	i.mu.Unlock()

	release, asset, err := i.resolve(ctx)

	i.mu.Lock()
	defer i.mu.Unlock()
	i.resolving = false
	if err != nil {
		return err
	}
	if gen != i.gen {
		log.Debug("installer: cancelled while resolving the release")
		return context.Canceled
	}

	log.Info("installer: downloading backend", "release", release.TagName, "asset", asset.Name)

	runCtx, cancel := context.WithCancel(context.Background())
	i.cancel = cancel
	i.done = make(chan struct{})
	i.running = true
	go i.run(runCtx, *release, asset, i.done)
	return nil
}

// resolve finds the newest release and its asset for this architecture
func (i *Installer) resolve(ctx context.Context) (*github.Release, github.Asset, error) {
	owner, repo, err := github.ParseRepo(i.opts.Repo)
	if err != nil {
		return nil, github.Asset{}, err
	}
	release, err := i.opts.GitHub.LatestRelease(ctx, owner, repo)
	if err != nil {
		return nil, github.Asset{}, fmt.Errorf("failed to resolve backend release: %w", err)
	}
	asset, ok := release.FindAsset(i.AssetName())
	if !ok {
		return nil, github.Asset{}, fmt.Errorf("%w: %s in %s", ErrNoAsset, i.AssetName(), release.TagName)
	}
	return release, asset, nil
}

// Progress returns completion in [0,100]. A failed install returns its error.
func (i *Installer) Progress(ctx context.Context) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.err != nil {
		return i.progress, i.err
	}
	if i.running && i.Simulated() {
		elapsed := i.opts.Clock.Since(i.startedAt)
		p := int(elapsed * 100 / i.opts.SimulateDuration)
		if p >= 100 {
			p = 100
			i.running = false
		}
		i.progress = p
	}
	return i.progress, nil
}

// Cancel aborts a running install and waits for it to stop
func (i *Installer) Cancel() {
	i.mu.Lock()
	cancel, done := i.cancel, i.done
	i.running = false
	i.gen++
	i.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (i *Installer) setProgress(p int) {
	i.mu.Lock()
	if p > i.progress {
		i.progress = p
	}
	i.mu.Unlock()
}

func (i *Installer) finish(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.running = false
	i.cancel = nil
	if err != nil {
		log.Error("installer: backend install failed", "err", err)
		i.err = err
		return
	}
	i.progress = 100
	log.Info("installer: backend installed", "path", i.BinaryPath())
}

func (i *Installer) run(ctx context.Context, release github.Release, asset github.Asset, done chan struct{}) {
	defer close(done)
	i.finish(i.install(ctx, release, asset))
}

func (i *Installer) install(ctx context.Context, release github.Release, asset github.Asset) error {
	workDir := filepath.Join(i.opts.InstallDir, ".download")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	archive := filepath.Join(workDir, asset.Name)
	err := i.opts.GitHub.DownloadFile(ctx, asset.BrowserDownloadURL, archive, func(pct float64) {
		i.setProgress(int(pct * downloadShare))
	})
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", asset.Name, err)
	}

	if err := i.verify(ctx, release, archive, asset.Name, workDir); err != nil {
		return err
	}
	i.setProgress(downloadShare + verifyShare)

	binary := i.BinaryPath()
	err = util.DecompressXZWithProgress(archive, binary, 0755, func(pct float64) {
		i.setProgress(downloadShare + verifyShare + int(pct*float64(100-downloadShare-verifyShare-1)))
	})
	if err != nil {
		return fmt.Errorf("failed to decompress backend: %w", err)
	}
	return nil
}

// verify checks the archive against SHA256SUMS when the release has one,
// and the checksum file's signature when a signing key is configured
func (i *Installer) verify(ctx context.Context, release github.Release, archive, name, workDir string) error {
	sumsAsset, ok := release.FindAsset(checksumsAsset)
	if !ok {
		if i.opts.SigningKey != "" {
			return fmt.Errorf("release %s has no %s to verify against", release.TagName, checksumsAsset)
		}
		log.Warn("installer: release has no checksums, skipping verification", "release", release.TagName)
		return nil
	}

	sumsPath := filepath.Join(workDir, checksumsAsset)
	if err := i.opts.GitHub.DownloadFile(ctx, sumsAsset.BrowserDownloadURL, sumsPath, nil); err != nil {
		return fmt.Errorf("failed to download checksums: %w", err)
	}
	sumsData, err := os.ReadFile(sumsPath)
	if err != nil {
		return fmt.Errorf("failed to read checksums: %w", err)
	}

	if i.opts.SigningKey != "" {
		sigAsset, ok := release.FindAsset(signatureAsset)
		if !ok {
			return fmt.Errorf("release %s has no %s", release.TagName, signatureAsset)
		}
		sigPath := filepath.Join(workDir, signatureAsset)
		if err := i.opts.GitHub.DownloadFile(ctx, sigAsset.BrowserDownloadURL, sigPath, nil); err != nil {
			return fmt.Errorf("failed to download signature: %w", err)
		}
		sig, err := os.ReadFile(sigPath)
		if err != nil {
			return fmt.Errorf("failed to read signature: %w", err)
		}
		key, err := signing.LoadPublicKey(i.opts.SigningKey)
		if err != nil {
			return err
		}
		if err := signing.VerifyDetached(sumsData, sig, key); err != nil {
			return fmt.Errorf("checksums signature invalid: %w", err)
		}
		log.Debug("installer: checksums signature verified")
	}

	sums, err := util.ParseSHA256SUMS(bytes.NewReader(sumsData))
	if err != nil {
		return err
	}
	return util.VerifySHA256(archive, name, sums)
}
