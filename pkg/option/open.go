package option

import (
	"github.com/bgrewell/dvd-kit/pkg/css"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/spf13/afero"
)

type OpenOptions struct {
	// Service opens the device. Defaults to a css.ImageService on Fs.
	Service css.Service
	// Fs is used for images, lock files and title set files. Defaults to the OS filesystem.
	Fs             afero.Fs
	KeyCachePolicy KeyCachePolicy
	// ExclusiveLock takes an advisory lock on the device while it is open.
	ExclusiveLock bool
	// LoadKeys prefetches all title keys when a scrambled medium is opened.
	LoadKeys bool
	Logger   *logging.Logger
}

type OpenOption func(*OpenOptions)

// DefaultOpenOptions returns the options used when none are given.
func DefaultOpenOptions() OpenOptions {
	return OpenOptions{
		KeyCachePolicy: KeyOnFileChange,
		LoadKeys:       true,
		Logger:         logging.DefaultLogger(),
	}
}

// ApplyOpen returns the default options modified by opts. Missing collaborators are filled in.
func ApplyOpen(opts ...OpenOption) OpenOptions {
	o := DefaultOpenOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Service == nil {
		o.Service = css.NewImageService(o.Fs)
	}
	o.Logger = logging.OrDefault(o.Logger)
	return o
}

func WithService(service css.Service) OpenOption {
	return func(o *OpenOptions) {
		o.Service = service
	}
}

func WithFs(fs afero.Fs) OpenOption {
	return func(o *OpenOptions) {
		o.Fs = fs
	}
}

func WithKeyCachePolicy(policy KeyCachePolicy) OpenOption {
	return func(o *OpenOptions) {
		o.KeyCachePolicy = policy
	}
}

func WithExclusiveLock(lock bool) OpenOption {
	return func(o *OpenOptions) {
		o.ExclusiveLock = lock
	}
}

func WithLoadKeys(load bool) OpenOption {
	return func(o *OpenOptions) {
		o.LoadKeys = load
	}
}

func WithLogger(logger *logging.Logger) OpenOption {
	return func(o *OpenOptions) {
		o.Logger = logger
	}
}
