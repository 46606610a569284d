// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and Lip Gloss styles used by the rigchat
terminal client.

# Color System (colors.go)

All colors are lipgloss.AdaptiveColor values so they follow the terminal's
light or dark background:

	Cyan      - Brand color, user labels, focus ring
	Purple    - Assistant labels and selections
	Emerald   - Success notices
	Amber     - Warnings and the busy indicator
	Rose      - Errors

# Theme System (theme.go)

A Theme bundles the styles for each region of the screen. NewTheme takes the
configured theme name ("dark", "light" or "auto"):

	theme := styles.NewTheme("auto")
	label := theme.UserLabel.Render("you")

# Spinners (spinner.go)

ThinkingSpinner is the frame set shown while a reply is pending.
*/
package styles
