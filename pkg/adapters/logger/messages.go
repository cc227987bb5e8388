package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Frames resolution: %d x %d":                                     "フレーム解像度: %d x %d",
		"Background average intensity: %.2f, threshold %.4f":             "背景の平均輝度: %.2f, しきい値 %.4f",
		"Starting detection: %d preprocess workers, %d classify workers": "検出を開始: 前処理ワーカー %d, 分類ワーカー %d",
		"Read %d frames in %s":                                           "%d フレームを %s で読み込みました",
		"Phase times: read %s, preprocess %s, classify %s":               "フェーズ時間: 読み込み %s, 前処理 %s, 分類 %s",
		"Frames with movement detected: %d of %d":                        "動きを検出したフレーム: %d / %d",
		"Interrupted, shutting down...":                                  "中断されました。シャットダウン中...",

		// Pipeline
		"Starting pipeline: %d preprocess workers, %d classify workers, row split %d/%d": "パイプラインを開始: 前処理ワーカー %d, 分類ワーカー %d, 行分割 %d/%d",
		"End of input: %d frames":                                                        "入力終了: %d フレーム",
		"Pipeline stopped: %d retired, %d with movement":                                 "パイプライン停止: %d フレーム完了, うち動きあり %d",
		"Discarded %d queued %s tasks":                                                   "キュー内の %d 件の %s タスクを破棄しました",

		// Stage workers
		"Starting %d workers":             "%d ワーカーを起動",
		"Stopped after %d tasks, busy %s": "%d タスク処理後に停止しました (処理時間 %s)",
		"Worker %d pinned to core %d":     "ワーカー %d をコア %d に固定しました",

		// Per-frame (debug)
		"Frame %d: %.2f%% different, movement": "フレーム %d: 差分 %.2f%%, 動きあり",

		// Warnings
		"Failed to save debug output: %s":        "デバッグ出力の保存に失敗しました: %s",
		"Failed to pin worker %d to core %d: %s": "ワーカー %d をコア %d に固定できませんでした: %s",

		// Errors
		"Pipeline failed: %v":  "パイプラインが失敗しました: %v",
		"Detection failed: %s": "検出に失敗しました: %s",
	})
}
