// Package update performs the startup check against the release
// manifest. The check is advisory: a newer release is logged, never
// installed. Failures are logged and swallowed so an unreachable
// manifest host cannot block boot.
package update
