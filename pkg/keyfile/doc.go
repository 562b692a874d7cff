/*
Package keyfile persists the key byte and plugin options used with xorplug.

A key file is a small fixed-size binary record, written big endian:

	magic   uint64  0x786f72706c756701
	version byte    1
	flags   byte    bit 0: update key on entry
	key     byte
	salt    [16]byte

The salt is only meaningful for keys derived from a passphrase with a KeyGenerator, and is all zeroes otherwise.
A derived key can be checked against a passphrase with Verify, but note that a single byte key is trivially guessable: a passphrase only makes the key reproducible, it doesn't make it secret.
*/
package keyfile
