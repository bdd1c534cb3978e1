package kv

import (
	"github.com/btcsuite/btcd/wire"
)

// spkKey is a scriptPubKey's raw bytes, used directly as the FamilySpkIndex
// key prefix; multiple outpoints for the same script are stored as
// sibling keys (spk ‖ outpoint) so the set can be prefix-scanned and
// mutated one entry at a time instead of read-modify-writing a list.
func spkOutpointKey(script []byte, op wire.OutPoint) []byte {
	key := make([]byte, 0, len(script)+len(EncodeOutPoint(op)))
	key = append(key, script...)
	key = append(key, EncodeOutPoint(op)...)
	return key
}

// AddScriptOutpoint stages the fact that script holds a rune balance at op.
func (b *Batch) AddScriptOutpoint(script []byte, op wire.OutPoint) {
	b.Put(FamilySpkIndex, spkOutpointKey(script, op), []byte{1})
}

// RemoveScriptOutpoint stages the removal of the association, used once op
// has been spent and purged.
func (b *Batch) RemoveScriptOutpoint(script []byte, op wire.OutPoint) {
	b.Delete(FamilySpkIndex, spkOutpointKey(script, op))
}

// ScriptOutpoints lists every outpoint currently associated with script.
func (s *Store) ScriptOutpoints(script []byte) ([]wire.OutPoint, error) {
	var out []wire.OutPoint
	err := s.ScanPrefix(FamilySpkIndex, script, func(key, _ []byte) bool {
		if op, ok := DecodeOutPoint(key[len(script):]); ok {
			out = append(out, op)
		}
		return true
	})
	return out, err
}

// PutOutpointScript records op's scriptPubKey, the reverse index the
// Address Updater needs to find which script an outpoint spent in a later
// flush window belonged to, when that outpoint wasn't also created within
// the same window.
func (b *Batch) PutOutpointScript(op wire.OutPoint, script []byte) {
	b.Put(FamilyOutpointScripts, EncodeOutPoint(op), script)
}

// OutpointScript looks up op's scriptPubKey, or false if op is unknown.
func (s *Store) OutpointScript(op wire.OutPoint) ([]byte, bool, error) {
	raw, err := s.Get(FamilyOutpointScripts, EncodeOutPoint(op))
	if err != nil {
		if kerr, ok := err.(*Error); ok && kerr.Kind == KindNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

// DeleteOutpointScript removes op's reverse-index entry, once op has been
// purged past the recoverable reorg window.
func (b *Batch) DeleteOutpointScript(op wire.OutPoint) {
	b.Delete(FamilyOutpointScripts, EncodeOutPoint(op))
}
