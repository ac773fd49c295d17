package ports

// ReloadKind is the kind of signal sent to connected browsers.
type ReloadKind string

const (
	// ReloadPage asks clients to reload the whole page.
	ReloadPage ReloadKind = "reload"
	// ReloadStyles asks clients to hot-swap their stylesheets.
	ReloadStyles ReloadKind = "css"
)

// Reloader notifies connected browsers of rebuilt output.
//
//go:generate go run go.uber.org/mock/mockgen -source=reloader.go -destination=mocks/mock_reloader.go -package=mocks
type Reloader interface {
	// Notify broadcasts a signal carrying the hash of the rebuilt output.
	// Every call is delivered, even when the output is byte-identical to the
	// previous build.
	Notify(kind ReloadKind, hash string)
}
