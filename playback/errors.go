// SPDX-License-Identifier: EPL-2.0

package playback

import "errors"

var ErrBufferTooSmall = errors.New("main buffer shorter than one stereo block")
