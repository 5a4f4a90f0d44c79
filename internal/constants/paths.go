package constants

// Log file names.
const (
	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.zipsign/logs/zipsign.log
	CLILogFileName = "zipsign.log"
)

// Configuration file names.
const (
	// ConfigFileName is the name of both the global and the project config file.
	ConfigFileName = "config.yaml"
)

// Archive layout written by the zip signer.
const (
	// MetaInfDir is the directory holding manifest and signature entries.
	MetaInfDir = "META-INF/"

	// ManifestName is the manifest entry listing a digest per archive entry.
	ManifestName = "META-INF/MANIFEST.MF"

	// SignatureFileName carries the key name and the manifest digest.
	SignatureFileName = "META-INF/ZIPSIGN.SF"

	// SignatureBlockName carries the Ed25519 signature over the signature file.
	SignatureBlockName = "META-INF/ZIPSIGN.SIG"

	// KeyFileExt is the extension of key files in the key directory.
	KeyFileExt = ".key"

	// KeyLockFileName serializes key generation across processes.
	KeyLockFileName = ".keys.lock"
)
