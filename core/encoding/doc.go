// Package encoding maps categorical request labels to the integer codes the
// estimator was trained with. Vocabularies are closed: a label that was not
// seen during training is reported as an UnknownCategoryError and never
// replaced by a default code.
package encoding
