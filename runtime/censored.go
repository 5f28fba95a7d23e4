package runtime

import "embed"

//go:embed censored/*
var CensoredFolder embed.FS
