// Package installer holds the starter WiX source written by "msibuild init".
package installer

import _ "embed"

// Template is a minimal WiX source that takes the product version from the
// Version preprocessor variable and links against WixUIExtension.
//
//go:embed Product.wxs
var Template []byte
