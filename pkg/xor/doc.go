/*
Package xor provides the byte-wise XOR screening used by xorplug.

Note that this is NOT encryption, since it is easily reversible.
This falls squarely under the obfuscation category, and a single byte key can be recovered from one known plain text byte.

# How it works:

Apply XORs a buffer in place with a single key byte, which is the transform behind every plugin export.

For streaming use, a key (with optional offset) is provided to NewReader or NewWriter, and every byte that passes through is XORed with the current key byte.
Once a key byte is used, the screen progresses to the next byte in the key, wrapping around like a ring buffer.
A one byte key is the degenerate ring, and produces exactly the same output as Apply.

# Important note:

Applying the same key (and offset) twice restores the original data.
*/
package xor
