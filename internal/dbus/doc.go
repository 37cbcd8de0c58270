// Package dbus exposes the audiokeep command bridge on the session bus.
// The daemon exports a Server whose methods feed the playback dispatcher;
// the CLI and terminal UI talk to it through a Client and observe
// PlaybackRequested signals with a Watcher.
package dbus
