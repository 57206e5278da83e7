/*
Package control implements the unit-of-dialog protocol and the controls
that compose into a dialog tree.

Every control implements a four-phase per-turn protocol, always invoked in
order: CanHandle, Handle, and, only when the handle phase produced no
initiative act, CanTakeInitiative and TakeInitiative. CanHandle is a pure
query: it may cache the decision it computed for the subsequent Handle
call, but it never mutates persisted state. Handle (and TakeInitiative) is
where state changes and acts are appended to the shared ResultBuilder.
Calling Handle without a prior affirmative CanHandle on the same turn is a
protocol violation and fails loudly.

Leaf controls (Number, List, Value, MultiValue) share one value-acquisition
machine covering set, validate, confirm, disconfirm and suggest. Composite
trees are built with ContainerControl, which arbitrates between children
and can pose an explicit disambiguation question when several children
claim the same utterance.

Controls are re-instantiated fresh every turn from a Builder recipe; the
previous turn's state is then reattached by identifier. State outlives
object identity, objects never outlive a turn.
*/
package control
