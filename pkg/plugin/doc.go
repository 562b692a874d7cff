/*
Package plugin implements the three xorplug exports over a context object that owns the key state.

# Exports:

  - set_key stores the last byte of the buffer as the key.
  - encrypt_with_key XORs the whole buffer in place with the stored key.
  - plugin_entry XORs every byte but the last with the last byte, and leaves the stored key alone unless UpdateKeyOnEntry is set.

Every export treats a zero-length buffer as a no-op.

Each Plugin holds its own key, so separate plugins never share state, and a single Plugin is safe for concurrent use.
Callers working with raw linear memory should go through View or Invoke, which reject a pointer and length that don't fit in the Memory instead of reading past it.
*/
package plugin
