// Package daemon provides the main orchestration for audiokeepd.
// It coordinates the playback dispatcher, the D-Bus command bridge, the
// system tray, desktop notifications and configuration hot-reload.
package daemon
