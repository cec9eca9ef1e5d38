// Package compress provides the compression codecs used by compressing data
// sinks and decompressing sources. Codecs are looked up by name in a
// concurrent registry so that the CLI can select them from configuration.
//
// Available codecs:
//
//   - none: copies the data unchanged
//   - zstd: klauspost/compress zstd with a shared encoder and decoder
//   - snappy: golang/snappy block format
//   - lz4: pierrec/lz4 frame format
package compress
