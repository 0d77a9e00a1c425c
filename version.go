package hfstol

// Version is the library version. Release builds override it via
// -ldflags "-X github.com/UAlbertaALTLab/hfst-altlab.Version=...".
var Version = "0.3.0"
