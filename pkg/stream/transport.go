package stream

// Transport opens streaming connections. Implementations must not block in
// Open waiting for the remote side: progress is reported through the Sink.
type Transport interface {
	// Open starts connecting to url. An error means the connection could not
	// even be attempted (for example a malformed url).
	Open(url string, sink Sink) (Conn, error)
}

// Sink receives the signals of one connection. A transport calls Received
// from a single goroutine so messages arrive in order, and stops calling the
// sink once it has reported Failed or the connection was closed.
type Sink interface {
	// Opened reports that the stream is established.
	Opened()

	// Received delivers the data of one stream message.
	Received(data []byte)

	// Failed reports that the stream broke or was closed by the remote side.
	Failed(err error)
}

// Conn is an open or opening connection.
type Conn interface {
	// Close tears the connection down. It is safe to call more than once and
	// never causes Sink.Failed.
	Close() error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(url string, sink Sink) (Conn, error)

// Open implements Transport.
func (f TransportFunc) Open(url string, sink Sink) (Conn, error) {
	return f(url, sink)
}
