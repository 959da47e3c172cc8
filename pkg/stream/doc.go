// Package stream carries live-tree operations over a websocket.
//
// Tree is a live.LiveTree that allocates numeric handles and records one
// protocol.Op per primitive instead of touching a real surface. Conn sends
// the recorded ops of a render cycle as one binary frame and reads client
// events back. Replica is the receiving side: it replays decoded ops onto
// any other LiveTree, which is how a client (or a test) mirrors the server.
package stream
