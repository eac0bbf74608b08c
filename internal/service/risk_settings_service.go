package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/siterisk/backend/internal/metrics"
	"github.com/siterisk/backend/internal/model"
	"github.com/siterisk/backend/internal/repository"
	"github.com/siterisk/backend/internal/risk"
)

// ErrUnknownPreset は存在しないプリセットキーが指定された場合のエラー
var ErrUnknownPreset = errors.New("unknown preset")

// PresetInfo は選択可能な閾値プリセット 1 件
type PresetInfo struct {
	Key        risk.PresetKey     `json:"key"`
	Thresholds model.ThresholdSet `json:"thresholds"`
}

// RiskSettingsService はリスク閾値・重み設定のビジネスロジック
type RiskSettingsService interface {
	Get(ctx context.Context, ownerID string) (*model.RiskSettings, error)
	Save(ctx context.Context, ownerID string, thresholds model.ThresholdSet, weights model.WeightOverrides) (*model.RiskSettings, error)
	ApplyPreset(ctx context.Context, ownerID string, key risk.PresetKey) (*model.RiskSettings, error)
	Presets() []PresetInfo
}

// RiskSettingsServiceImpl は RiskSettingsService の実装
type RiskSettingsServiceImpl struct {
	store repository.ThresholdStore
}

// NewRiskSettingsService は RiskSettingsServiceImpl を生成する
func NewRiskSettingsService(store repository.ThresholdStore) RiskSettingsService {
	return &RiskSettingsServiceImpl{store: store}
}

// DefaultRiskSettings は balanced 閾値とデフォルト重みの設定を返す
func DefaultRiskSettings() *model.RiskSettings {
	return withPreset(&model.RiskSettings{
		Thresholds: risk.DefaultThresholds(),
		Weights:    risk.DefaultWeights(),
	})
}

func withPreset(s *model.RiskSettings) *model.RiskSettings {
	key, _ := risk.DetectPreset(s.Thresholds)
	s.Preset = string(key)
	return s
}

// Get はオーナーの設定を返す。未保存の場合はデフォルトを返す。
// 保存済み閾値の順序が不正な場合は *risk.ThresholdOrderError を返す。
func (s *RiskSettingsServiceImpl) Get(ctx context.Context, ownerID string) (*model.RiskSettings, error) {
	settings, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := risk.ValidateThresholds(settings.Thresholds); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *RiskSettingsServiceImpl) load(ctx context.Context, ownerID string) (*model.RiskSettings, error) {
	settings, err := s.store.Load(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return DefaultRiskSettings(), nil
	}
	if err != nil {
		return nil, err
	}
	return withPreset(settings), nil
}

// Save は閾値の順序を検証し、重みをマージ・正規化して保存する。
// 順序違反は *risk.ThresholdOrderError、重みの不正は risk.ErrInvalidWeights を返す。
func (s *RiskSettingsServiceImpl) Save(
	ctx context.Context,
	ownerID string,
	thresholds model.ThresholdSet,
	weights model.WeightOverrides,
) (*model.RiskSettings, error) {
	if err := risk.ValidateThresholds(thresholds); err != nil {
		return nil, err
	}
	w, err := risk.MergeWeights(weights)
	if err != nil {
		return nil, err
	}
	settings := withPreset(&model.RiskSettings{Thresholds: thresholds, Weights: w})
	if err := s.store.Save(ctx, ownerID, settings); err != nil {
		return nil, fmt.Errorf("save risk settings: %w", err)
	}
	metrics.ObserveSettingsSave(settings.Preset)
	return settings, nil
}

// ApplyPreset はオーナーの閾値をプリセットで置き換える。重みは維持する。
func (s *RiskSettingsServiceImpl) ApplyPreset(ctx context.Context, ownerID string, key risk.PresetKey) (*model.RiskSettings, error) {
	thresholds, ok := risk.Preset(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, key)
	}
	// 閾値は置き換えるため、保存済み閾値の順序は検証しない
	current, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, ownerID, thresholds, risk.WeightOverridesOf(current.Weights))
}

// Presets は全プリセットを表示順で返す
func (s *RiskSettingsServiceImpl) Presets() []PresetInfo {
	out := make([]PresetInfo, 0, len(risk.PresetKeys))
	for _, key := range risk.PresetKeys {
		t, _ := risk.Preset(key)
		out = append(out, PresetInfo{Key: key, Thresholds: t})
	}
	return out
}
